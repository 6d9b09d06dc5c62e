package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ConfigError is one structural problem found in a schema document. These
// are authoring mistakes: they block form use entirely and are never
// surfaced as runtime validation failures.
type ConfigError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("schema: %s: %s", e.Path, e.Message)
	}
	return "schema: " + e.Message
}

// ConfigProblems aggregates every configuration error found in one pass so
// the authoring layer can surface them together.
type ConfigProblems []ConfigError

func (p ConfigProblems) Error() string {
	if len(p) == 0 {
		return "schema: no configuration problems"
	}
	msgs := make([]string, len(p))
	for i, e := range p {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the structural invariants of a schema: unique field names,
// unique ids across fields and sections, rule variants matching field types,
// and acyclic conditional dependencies. It returns nil or a ConfigProblems.
func Validate(form Form) error {
	var problems ConfigProblems

	if strings.TrimSpace(form.ID) == "" {
		problems = append(problems, ConfigError{Message: "form id is required"})
	}

	names := map[string]string{}
	ids := map[string]string{}
	for _, section := range form.Sections {
		sectionPath := "section " + section.ID
		if section.ID == "" {
			problems = append(problems, ConfigError{Message: "section id is required"})
		} else if prev, dup := ids[section.ID]; dup {
			problems = append(problems, ConfigError{Path: sectionPath, Message: "id already used by " + prev})
		} else {
			ids[section.ID] = sectionPath
		}
		if section.Conditional != nil {
			problems = append(problems, conditionalProblems(*section.Conditional, sectionPath)...)
		}

		for _, field := range section.Fields {
			problems = append(problems, fieldProblems(field, names, ids)...)
		}
	}

	problems = append(problems, cycleProblems(form)...)

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func fieldProblems(field Field, names, ids map[string]string) ConfigProblems {
	var problems ConfigProblems

	if field.Name == "" {
		problems = append(problems, ConfigError{Field: field.ID, Message: "field name is required"})
	} else if prev, dup := names[field.Name]; dup {
		problems = append(problems, ConfigError{Field: field.Name, Message: "name already used by field " + prev})
	} else {
		names[field.Name] = field.Name
	}

	if field.ID == "" {
		problems = append(problems, ConfigError{Field: field.Name, Message: "field id is required"})
	} else if prev, dup := ids[field.ID]; dup {
		problems = append(problems, ConfigError{Field: field.Name, Message: "id already used by " + prev})
	} else {
		ids[field.ID] = "field " + field.Name
	}

	if !KnownFieldType(field.Type) {
		problems = append(problems, ConfigError{Field: field.Name, Message: fmt.Sprintf("unknown field type %q", field.Type)})
	}

	if field.Validation != nil {
		problems = append(problems, ruleProblems(field)...)
	}
	if field.Conditional != nil {
		problems = append(problems, conditionalProblems(*field.Conditional, "field "+field.Name)...)
	}
	return problems
}

// ruleProblems enforces the tagged-union invariant: a field's validation
// object may only set the keys of the variant matching its type.
func ruleProblems(field Field) ConfigProblems {
	rule := field.Validation
	var problems ConfigProblems
	reject := func(key string) {
		problems = append(problems, ConfigError{
			Field:   field.Name,
			Message: fmt.Sprintf("validation key %q does not apply to type %q", key, field.Type),
		})
	}

	stringRule := func() {
		if rule.Min != nil {
			reject("min")
		}
		if rule.Max != nil {
			reject("max")
		}
		if rule.Step != nil {
			reject("step")
		}
		if rule.Integer {
			reject("integer")
		}
		if rule.MinDate != "" {
			reject("minDate")
		}
		if rule.MaxDate != "" {
			reject("maxDate")
		}
		if rule.MinItems != nil {
			reject("minItems")
		}
		if rule.MaxItems != nil {
			reject("maxItems")
		}
		if rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				problems = append(problems, ConfigError{Field: field.Name, Message: "invalid pattern: " + err.Error()})
			}
		}
		switch rule.Format {
		case "", FormatEmail, FormatURL, FormatPhone:
		default:
			problems = append(problems, ConfigError{Field: field.Name, Message: fmt.Sprintf("unknown string format %q", rule.Format)})
		}
	}

	switch field.Type {
	case FieldTypeText, FieldTypeEmail, FieldTypeTextarea:
		stringRule()
	case FieldTypeNumber:
		if rule.MinLength != nil {
			reject("minLength")
		}
		if rule.MaxLength != nil {
			reject("maxLength")
		}
		if rule.Pattern != "" {
			reject("pattern")
		}
		if rule.Format != "" {
			reject("format")
		}
		if rule.MinDate != "" {
			reject("minDate")
		}
		if rule.MaxDate != "" {
			reject("maxDate")
		}
		if rule.MinItems != nil {
			reject("minItems")
		}
		if rule.MaxItems != nil {
			reject("maxItems")
		}
	case FieldTypeDate:
		if rule.MinLength != nil {
			reject("minLength")
		}
		if rule.MaxLength != nil {
			reject("maxLength")
		}
		if rule.Pattern != "" {
			reject("pattern")
		}
		if rule.Min != nil {
			reject("min")
		}
		if rule.Max != nil {
			reject("max")
		}
		if rule.Step != nil {
			reject("step")
		}
		if rule.Integer {
			reject("integer")
		}
		if rule.MinItems != nil {
			reject("minItems")
		}
		if rule.MaxItems != nil {
			reject("maxItems")
		}
		for key, raw := range map[string]string{"minDate": rule.MinDate, "maxDate": rule.MaxDate} {
			if raw == "" {
				continue
			}
			if _, err := ParseDate(raw, rule.Format); err != nil {
				problems = append(problems, ConfigError{Field: field.Name, Message: fmt.Sprintf("invalid %s %q", key, raw)})
			}
		}
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		if rule.MinLength != nil {
			reject("minLength")
		}
		if rule.MaxLength != nil {
			reject("maxLength")
		}
		if rule.Pattern != "" {
			reject("pattern")
		}
		if rule.Format != "" {
			reject("format")
		}
		if rule.Min != nil {
			reject("min")
		}
		if rule.Max != nil {
			reject("max")
		}
		if rule.Step != nil {
			reject("step")
		}
		if rule.Integer {
			reject("integer")
		}
		if rule.MinDate != "" {
			reject("minDate")
		}
		if rule.MaxDate != "" {
			reject("maxDate")
		}
	}
	return problems
}

func conditionalProblems(rule ConditionalRule, path string) ConfigProblems {
	var problems ConfigProblems
	if rule.Composite() {
		switch rule.Logic {
		case "", LogicAnd, LogicOr:
		default:
			problems = append(problems, ConfigError{Path: path, Message: fmt.Sprintf("unknown logic %q", rule.Logic)})
		}
		for _, child := range rule.Rules {
			problems = append(problems, conditionalProblems(child, path)...)
		}
		return problems
	}

	if rule.Field == "" {
		problems = append(problems, ConfigError{Path: path, Message: "conditional rule needs a field"})
	}
	switch rule.Operator {
	case OperatorEquals, OperatorNotEquals, OperatorGreaterThan, OperatorLessThan,
		OperatorContains, OperatorNotContains:
	default:
		problems = append(problems, ConfigError{Path: path, Message: fmt.Sprintf("unknown operator %q", rule.Operator)})
	}
	return problems
}

// cycleProblems detects conditional dependency cycles. Edges run from a
// conditioned field to every field its rule reads; a section's conditional
// contributes edges from each of the section's fields. A conditional that
// names an unknown field is left alone here: at evaluation time it simply
// yields false.
func cycleProblems(form Form) ConfigProblems {
	deps := map[string][]string{}
	for _, section := range form.Sections {
		var sectionDeps []string
		if section.Conditional != nil {
			sectionDeps = ruleDependencies(*section.Conditional)
		}
		for _, field := range section.Fields {
			edges := append([]string(nil), sectionDeps...)
			if field.Conditional != nil {
				edges = append(edges, ruleDependencies(*field.Conditional)...)
			}
			if len(edges) > 0 {
				deps[field.Name] = edges
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var problems ConfigProblems
	var stack []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range deps[name] {
			switch color[dep] {
			case gray:
				cycle := cycleFrom(stack, dep)
				problems = append(problems, ConfigError{
					Field:   dep,
					Message: "conditional dependency cycle: " + strings.Join(cycle, " -> "),
				})
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for name := range deps {
		if color[name] == white {
			stack = stack[:0]
			visit(name)
		}
	}
	return problems
}

func cycleFrom(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			cycle := append([]string(nil), stack[i:]...)
			return append(cycle, start)
		}
	}
	return []string{start, start}
}

func ruleDependencies(rule ConditionalRule) []string {
	if rule.Composite() {
		var out []string
		for _, child := range rule.Rules {
			out = append(out, ruleDependencies(child)...)
		}
		return out
	}
	if rule.Field == "" {
		return nil
	}
	return []string{rule.Field}
}

// ParseDate parses an answer or rule date. Plain dates use ISO layout;
// datetime-local carries a time component.
func ParseDate(raw, format string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if format == FormatDatetimeLocal {
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", time.RFC3339} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("schema: invalid datetime %q", raw)
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("schema: invalid date %q", raw)
}
