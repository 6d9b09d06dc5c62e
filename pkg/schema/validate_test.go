package schema

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func validForm() Form {
	return Form{
		ID: "demo",
		Sections: []Section{{
			ID: "s1",
			Fields: []Field{
				{ID: "f1", Name: "name", Type: FieldTypeText, Validation: &Validation{Required: true, MaxLength: intPtr(40)}},
				{ID: "f2", Name: "age", Type: FieldTypeNumber, Validation: &Validation{Min: floatPtr(0)}},
			},
		}},
	}
}

func TestValidateAcceptsWellFormedSchema(t *testing.T) {
	t.Parallel()

	if err := Validate(validForm()); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateDuplicateFieldName(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Sections[0].Fields = append(form.Sections[0].Fields, Field{ID: "f3", Name: "name", Type: FieldTypeText})

	err := Validate(form)
	var problems ConfigProblems
	if !errors.As(err, &problems) {
		t.Fatalf("expected ConfigProblems, got %v", err)
	}
	if !strings.Contains(problems.Error(), "name already used") {
		t.Fatalf("unexpected problems: %v", problems)
	}
}

func TestValidateDuplicateIDAcrossFieldsAndSections(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Sections = append(form.Sections, Section{ID: "f1"})

	if err := Validate(form); err == nil {
		t.Fatalf("expected duplicate id to fail validation")
	}
}

func TestValidateRuleVariantMismatch(t *testing.T) {
	t.Parallel()

	form := validForm()
	// a number rule on a text field is a configuration error, not a
	// runtime validation failure
	form.Sections[0].Fields[0].Validation = &Validation{Min: floatPtr(1)}

	err := Validate(form)
	var problems ConfigProblems
	if !errors.As(err, &problems) {
		t.Fatalf("expected ConfigProblems, got %v", err)
	}
	if !strings.Contains(problems.Error(), `"min" does not apply`) {
		t.Fatalf("unexpected problems: %v", problems)
	}
}

func TestValidateInvalidPattern(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Sections[0].Fields[0].Validation = &Validation{Pattern: "(unclosed"}

	if err := Validate(form); err == nil {
		t.Fatalf("expected invalid pattern to fail validation")
	}
}

func TestValidateConditionalCycle(t *testing.T) {
	t.Parallel()

	form := Form{
		ID: "cyclic",
		Sections: []Section{{
			ID: "s1",
			Fields: []Field{
				{ID: "a", Name: "a", Type: FieldTypeText,
					Conditional: &ConditionalRule{Field: "b", Operator: OperatorEquals, Value: "x"}},
				{ID: "b", Name: "b", Type: FieldTypeText,
					Conditional: &ConditionalRule{Field: "a", Operator: OperatorEquals, Value: "y"}},
			},
		}},
	}

	err := Validate(form)
	var problems ConfigProblems
	if !errors.As(err, &problems) {
		t.Fatalf("expected ConfigProblems, got %v", err)
	}
	if !strings.Contains(problems.Error(), "cycle") {
		t.Fatalf("expected a cycle report, got %v", problems)
	}
}

func TestValidateSectionConditionalContributesCycleEdges(t *testing.T) {
	t.Parallel()

	form := Form{
		ID: "cyclic",
		Sections: []Section{
			{
				ID:          "s1",
				Conditional: &ConditionalRule{Field: "trigger", Operator: OperatorEquals, Value: true},
				Fields:      []Field{{ID: "t2", Name: "other", Type: FieldTypeText}},
			},
			{
				ID: "s2",
				Fields: []Field{{
					ID: "t1", Name: "trigger", Type: FieldTypeCheckbox,
					Conditional: &ConditionalRule{Field: "other", Operator: OperatorEquals, Value: "go"},
				}},
			},
		},
	}

	if err := Validate(form); err == nil {
		t.Fatalf("expected section-induced cycle to fail validation")
	}
}

func TestValidateUnknownConditionalTargetIsAllowed(t *testing.T) {
	t.Parallel()

	// referencing a field that does not exist keeps the field hidden at
	// runtime but is not a configuration error
	form := validForm()
	form.Sections[0].Fields[1].Conditional = &ConditionalRule{
		Field: "missing", Operator: OperatorEquals, Value: 1,
	}

	if err := Validate(form); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}

func TestValidateCompositeLogic(t *testing.T) {
	t.Parallel()

	form := validForm()
	form.Sections[0].Fields[1].Conditional = &ConditionalRule{
		Logic: "xor",
		Rules: []ConditionalRule{{Field: "name", Operator: OperatorEquals, Value: "x"}},
	}

	if err := Validate(form); err == nil {
		t.Fatalf("expected unknown logic to fail validation")
	}
}
