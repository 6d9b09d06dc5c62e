package schema

// FieldType is the closed set of input kinds the runtime understands.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
)

// FieldTypes lists every supported field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText, FieldTypeEmail, FieldTypeTextarea, FieldTypeNumber,
		FieldTypeDate, FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox,
	}
}

// KnownFieldType reports whether t is one of the supported field types.
func KnownFieldType(t FieldType) bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeTextarea, FieldTypeNumber,
		FieldTypeDate, FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}

// Operator names a comparison applied by conditional rules against the
// current answer for a field.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
)

// Logic combines the child rules of a composite conditional.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// ConditionalRule decides field or section visibility from the current
// answers. A rule with child Rules ignores its own Field/Operator/Value and
// reduces over the children with Logic (and when omitted).
type ConditionalRule struct {
	Field    string            `json:"field,omitempty" yaml:"field,omitempty"`
	Operator Operator          `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    any               `json:"value,omitempty" yaml:"value,omitempty"`
	Logic    Logic             `json:"logic,omitempty" yaml:"logic,omitempty"`
	Rules    []ConditionalRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Composite reports whether the rule reduces over child rules.
func (r ConditionalRule) Composite() bool { return len(r.Rules) > 0 }

// StringFormat values accepted by the string rule's Format.
const (
	FormatEmail = "email"
	FormatURL   = "url"
	FormatPhone = "phone"
)

// FormatDatetimeLocal switches date comparisons to full-timestamp
// granularity instead of calendar dates.
const FormatDatetimeLocal = "datetime-local"

// Validation is the per-field rule object. Only the keys belonging to the
// owning field's type variant may be set; Validate treats a mismatch as a
// configuration error.
type Validation struct {
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`

	// String variant (text, email, textarea).
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Format applies to the string variant (email, url, phone) and to the
	// date variant (date, datetime-local).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Number variant.
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step    *float64 `json:"step,omitempty" yaml:"step,omitempty"`
	Integer bool     `json:"integer,omitempty" yaml:"integer,omitempty"`

	// Date variant, ISO date strings.
	MinDate string `json:"minDate,omitempty" yaml:"minDate,omitempty"`
	MaxDate string `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`

	// Select variant; bounds the cardinality of multi-select answers.
	MinItems *int `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems *int `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
}

// Option is one selectable choice for select and radio fields.
type Option struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Value any    `json:"value" yaml:"value"`
}

// Field models a single input. Name keys the answer map and must be unique
// within the schema; ID addresses the field in UI layers and must be unique
// across fields and sections combined.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Order       int       `json:"order,omitempty" yaml:"order,omitempty"`

	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Readonly bool `json:"readonly,omitempty" yaml:"readonly,omitempty"`
	Hidden   bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`

	// Multiple marks a select field as accepting several values; the select
	// rule's minItems/maxItems only apply when it is set.
	Multiple bool     `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Options  []Option `json:"options,omitempty" yaml:"options,omitempty"`

	Validation  *Validation      `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditional *ConditionalRule `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// Section groups ordered fields; in multi-step mode one visible section is
// one step.
type Section struct {
	ID          string           `json:"id" yaml:"id"`
	Title       string           `json:"title,omitempty" yaml:"title,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field          `json:"fields" yaml:"fields"`
	Conditional *ConditionalRule `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	Collapsible bool             `json:"collapsible,omitempty" yaml:"collapsible,omitempty"`
}

// Settings carries schema-level behavior toggles.
type Settings struct {
	MultiStep    bool `json:"multiStep,omitempty" yaml:"multiStep,omitempty"`
	ShowProgress bool `json:"showProgress,omitempty" yaml:"showProgress,omitempty"`
	AllowDrafts  bool `json:"allowDrafts,omitempty" yaml:"allowDrafts,omitempty"`
}

// Form is the top-level declarative schema. The runtime consumes it
// read-only; it is authored and persisted by external collaborators.
type Form struct {
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title,omitempty" yaml:"title,omitempty"`
	Sections []Section         `json:"sections" yaml:"sections"`
	Settings Settings          `json:"settings,omitempty" yaml:"settings,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FieldByName returns the field keyed by name, searching every section.
func (f Form) FieldByName(name string) (Field, bool) {
	for _, section := range f.Sections {
		for _, field := range section.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// Fields returns every field in section order then field order.
func (f Form) Fields() []Field {
	var out []Field
	for _, section := range f.Sections {
		out = append(out, section.Fields...)
	}
	return out
}
