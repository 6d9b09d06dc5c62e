package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// Sanitize strips untrusted markup from every authored display string in the
// form. Labels and descriptions may carry inline formatting; everything else
// is removed.
func Sanitize(form *Form) {
	if form == nil {
		return
	}
	form.Title = sanitizeMarkup(form.Title)
	for i := range form.Sections {
		section := &form.Sections[i]
		section.Title = sanitizeMarkup(section.Title)
		section.Description = sanitizeMarkup(section.Description)
		for j := range section.Fields {
			field := &section.Fields[j]
			field.Label = sanitizeMarkup(field.Label)
			field.Description = sanitizeMarkup(field.Description)
			field.Placeholder = sanitizeMarkup(field.Placeholder)
			for k := range field.Options {
				field.Options[k].Label = sanitizeMarkup(field.Options[k].Label)
			}
		}
	}
}

func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(markupSanitizer().Sanitize(trimmed))
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "i", "em", "strong", "code", "br")
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		markupPolicy = policy
	})
	return markupPolicy
}
