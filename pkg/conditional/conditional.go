// Package conditional decides field and section visibility by evaluating
// ConditionalRule trees against a snapshot of current answers. Evaluation is
// a pure function of the snapshot: no prior visibility state leaks in, and a
// malformed or dangling rule evaluates to hidden rather than failing.
package conditional

import (
	"strings"

	"github.com/goliatone/go-formrun/pkg/schema"
)

// Evaluator evaluates conditional rules for one schema. It precomputes the
// set of known field names so rules referencing fields outside the schema
// evaluate to false instead of depending on answer-map accidents.
type Evaluator struct {
	form  schema.Form
	known map[string]struct{}
}

// New builds an evaluator for the given form.
func New(form schema.Form) *Evaluator {
	known := make(map[string]struct{})
	for _, section := range form.Sections {
		for _, field := range section.Fields {
			known[field.Name] = struct{}{}
		}
	}
	return &Evaluator{form: form, known: known}
}

// Visible reports whether a rule passes for the given answers. A nil rule is
// always visible.
func (e *Evaluator) Visible(rule *schema.ConditionalRule, answers map[string]any) bool {
	if rule == nil {
		return true
	}
	return e.eval(*rule, answers)
}

// SectionVisible applies the section's own conditional.
func (e *Evaluator) SectionVisible(section schema.Section, answers map[string]any) bool {
	return e.Visible(section.Conditional, answers)
}

// FieldVisible reports whether a field inside the given section is visible:
// the section must be visible, the field's hidden flag unset, and its own
// conditional (if any) true. A hidden section hides all of its fields
// regardless of their individual conditionals.
func (e *Evaluator) FieldVisible(section schema.Section, field schema.Field, answers map[string]any) bool {
	if field.Hidden {
		return false
	}
	if !e.SectionVisible(section, answers) {
		return false
	}
	return e.Visible(field.Conditional, answers)
}

// VisibleSections returns the schema's sections that pass their conditionals,
// preserving order.
func (e *Evaluator) VisibleSections(answers map[string]any) []schema.Section {
	var out []schema.Section
	for _, section := range e.form.Sections {
		if e.SectionVisible(section, answers) {
			out = append(out, section)
		}
	}
	return out
}

// VisibleFields returns every currently visible field in display order.
func (e *Evaluator) VisibleFields(answers map[string]any) []schema.Field {
	var out []schema.Field
	for _, section := range e.form.Sections {
		if !e.SectionVisible(section, answers) {
			continue
		}
		for _, field := range section.Fields {
			if field.Hidden {
				continue
			}
			if e.Visible(field.Conditional, answers) {
				out = append(out, field)
			}
		}
	}
	return out
}

func (e *Evaluator) eval(rule schema.ConditionalRule, answers map[string]any) bool {
	if rule.Composite() {
		if rule.Logic == schema.LogicOr {
			for _, child := range rule.Rules {
				if e.eval(child, answers) {
					return true
				}
			}
			return false
		}
		// and is the default when logic is omitted
		for _, child := range rule.Rules {
			if !e.eval(child, answers) {
				return false
			}
		}
		return true
	}

	if _, ok := e.known[rule.Field]; !ok {
		return false
	}
	answer := answers[rule.Field]

	switch rule.Operator {
	case schema.OperatorEquals:
		return Equal(answer, rule.Value)
	case schema.OperatorNotEquals:
		return !Equal(answer, rule.Value)
	case schema.OperatorGreaterThan:
		left, lok := Number(answer)
		right, rok := Number(rule.Value)
		return lok && rok && left > right
	case schema.OperatorLessThan:
		left, lok := Number(answer)
		right, rok := Number(rule.Value)
		return lok && rok && left < right
	case schema.OperatorContains:
		return contains(answer, rule.Value)
	case schema.OperatorNotContains:
		return !contains(answer, rule.Value)
	default:
		return false
	}
}

func contains(answer, want any) bool {
	if items, ok := Slice(answer); ok {
		for _, item := range items {
			if Equal(item, want) {
				return true
			}
		}
		return false
	}
	if s, ok := answer.(string); ok {
		return strings.Contains(s, String(want))
	}
	return false
}
