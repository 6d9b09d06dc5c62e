package validation

import (
	"sort"

	"github.com/goliatone/go-formrun/pkg/schema"
)

// FormChecker holds the compiled checker for every field in a schema. It is
// built once when a schema loads and shared by step gating and submission.
type FormChecker struct {
	checkers map[string]Checker
	order    map[string]int
}

// CompileForm compiles every field checker up front. Compilation failures
// are configuration errors aggregated into a schema.ConfigProblems.
func CompileForm(form schema.Form) (*FormChecker, error) {
	fc := &FormChecker{
		checkers: make(map[string]Checker),
		order:    make(map[string]int),
	}

	var problems schema.ConfigProblems
	position := 0
	for _, section := range form.Sections {
		for _, field := range section.Fields {
			checker, err := Compile(field)
			if err != nil {
				if cfg, ok := err.(schema.ConfigError); ok {
					problems = append(problems, cfg)
				} else {
					problems = append(problems, schema.ConfigError{Field: field.Name, Message: err.Error()})
				}
				continue
			}
			fc.checkers[field.Name] = checker
			fc.order[field.Name] = position
			position++
		}
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return fc, nil
}

// CheckField runs the compiled checker for one field. Unknown fields
// produce no errors.
func (fc *FormChecker) CheckField(name string, value any) []schema.ValidationError {
	checker, ok := fc.checkers[name]
	if !ok {
		return nil
	}
	return checker(value)
}

// Check validates the given visible fields against the answer snapshot and
// returns the aggregated error list in schema field order. Hidden fields are
// simply not passed in, which keeps them out of required-ness entirely.
func (fc *FormChecker) Check(visible []schema.Field, answers map[string]any) []schema.ValidationError {
	var errs []schema.ValidationError
	for _, field := range visible {
		errs = append(errs, fc.CheckField(field.Name, answers[field.Name])...)
	}
	sort.SliceStable(errs, func(i, j int) bool {
		return fc.order[errs[i].Field] < fc.order[errs[j].Field]
	})
	return errs
}
