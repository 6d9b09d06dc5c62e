package validation

import (
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/goliatone/go-formrun/pkg/schema"
)

// phonePattern is deliberately lenient: an optional +, then 7-15 digits with
// common separators. Carrier-grade validation belongs to an async validator.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().\-]{5,18}[0-9]$`)

// FormatValid performs the lenient well-formedness check for the named
// string format. Unknown formats pass; Validate rejects them at load time.
func FormatValid(format, value string) bool {
	value = strings.TrimSpace(value)
	switch format {
	case schema.FormatEmail:
		addr, err := mail.ParseAddress(value)
		return err == nil && addr.Address == value && strings.Contains(value, "@")
	case schema.FormatURL:
		parsed, err := url.Parse(value)
		return err == nil && parsed.Scheme != "" && parsed.Host != ""
	case schema.FormatPhone:
		return phonePattern.MatchString(value)
	default:
		return true
	}
}
