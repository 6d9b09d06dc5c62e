// Package navigator tracks position in a multi-step form. Steps are the
// currently visible sections, renumbered on the fly as answers change
// visibility; forward navigation is gated on the current step validating
// clean.
package navigator

import (
	"github.com/goliatone/go-formrun/pkg/conditional"
	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/validation"
)

// Navigator owns the step cursor for one fill session. It keys position by
// section id rather than index so visibility shifts keep the user on the
// same section whenever it is still visible.
type Navigator struct {
	form    schema.Form
	eval    *conditional.Evaluator
	checker *validation.FormChecker

	// current holds the section id of the active step; empty means the
	// first visible step.
	current string
}

// Step is one page of the wizard: a visible section and its visible fields.
type Step struct {
	Index   int
	Section schema.Section
	Fields  []schema.Field
}

// New builds a navigator positioned on the first step.
func New(form schema.Form, eval *conditional.Evaluator, checker *validation.FormChecker) *Navigator {
	return &Navigator{form: form, eval: eval, checker: checker}
}

// Wizard reports whether the schema runs one-section-per-step.
func (n *Navigator) Wizard() bool { return n.form.Settings.MultiStep }

// Steps returns the visible step list for the answer snapshot. Single-page
// schemas always produce exactly one step spanning every visible field.
func (n *Navigator) Steps(answers map[string]any) []Step {
	if !n.Wizard() {
		return []Step{{
			Index:  0,
			Fields: n.eval.VisibleFields(answers),
		}}
	}

	var steps []Step
	for _, section := range n.eval.VisibleSections(answers) {
		steps = append(steps, Step{
			Index:   len(steps),
			Section: section,
			Fields:  n.sectionFields(section, answers),
		})
	}
	if len(steps) == 0 {
		steps = []Step{{Index: 0}}
	}
	return steps
}

// TotalSteps counts the currently visible steps.
func (n *Navigator) TotalSteps(answers map[string]any) int {
	return len(n.Steps(answers))
}

// Current resolves the active step against the latest visibility. If the
// remembered section went invisible the cursor moves to the nearest later
// visible step, falling back to the nearest earlier one.
func (n *Navigator) Current(answers map[string]any) Step {
	steps := n.Steps(answers)
	idx := n.resolve(steps)
	return steps[idx]
}

// Progress reports (currentStep+1)/totalVisibleSteps for indicators.
func (n *Navigator) Progress(answers map[string]any) float64 {
	steps := n.Steps(answers)
	return float64(n.resolve(steps)+1) / float64(len(steps))
}

// AtLastStep reports whether the cursor sits on the final visible step.
func (n *Navigator) AtLastStep(answers map[string]any) bool {
	steps := n.Steps(answers)
	return n.resolve(steps) == len(steps)-1
}

// Next advances one step when the current step's visible fields validate
// clean. It returns the blocking errors when gated, and advanced=false with
// no errors when already on the last step, which is the hand-off point to
// submission.
func (n *Navigator) Next(answers map[string]any) (advanced bool, errs []schema.ValidationError) {
	steps := n.Steps(answers)
	idx := n.resolve(steps)

	errs = n.checker.Check(steps[idx].Fields, answers)
	if len(errs) > 0 {
		return false, errs
	}
	if idx >= len(steps)-1 {
		return false, nil
	}
	n.setCurrent(steps[idx+1])
	return true, nil
}

// Previous steps back, clamped to the first step. It is never gated.
func (n *Navigator) Previous(answers map[string]any) {
	steps := n.Steps(answers)
	idx := n.resolve(steps)
	if idx > 0 {
		idx--
	}
	n.setCurrent(steps[idx])
}

// Reset returns the cursor to the first step.
func (n *Navigator) Reset() { n.current = "" }

func (n *Navigator) setCurrent(step Step) {
	n.current = step.Section.ID
}

// resolve maps the remembered section id onto the live step list.
func (n *Navigator) resolve(steps []Step) int {
	if n.current == "" {
		return 0
	}
	for _, step := range steps {
		if step.Section.ID == n.current {
			return step.Index
		}
	}

	// The section went invisible: advance to the nearest later visible
	// section in schema order, else the nearest earlier one.
	position := n.sectionPosition(n.current)
	later, earlier := -1, -1
	for _, step := range steps {
		p := n.sectionPosition(step.Section.ID)
		if p > position && (later == -1 || p < n.sectionPosition(steps[later].Section.ID)) {
			later = step.Index
		}
		if p < position {
			earlier = step.Index
		}
	}
	if later >= 0 {
		return later
	}
	if earlier >= 0 {
		return earlier
	}
	return 0
}

func (n *Navigator) sectionPosition(id string) int {
	for i, section := range n.form.Sections {
		if section.ID == id {
			return i
		}
	}
	return -1
}

func (n *Navigator) sectionFields(section schema.Section, answers map[string]any) []schema.Field {
	var out []schema.Field
	for _, field := range section.Fields {
		if n.eval.FieldVisible(section, field, answers) {
			out = append(out, field)
		}
	}
	return out
}
