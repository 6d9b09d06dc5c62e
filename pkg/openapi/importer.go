// Package openapi imports OpenAPI 3 operations as form schemas so existing
// API specs can seed data-collection forms. The request body's object schema
// becomes a single section; property constraints become the matching
// validation-rule variant.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formrun/pkg/schema"
)

var (
	errEmptyDocument    = errors.New("openapi import: document payload is empty")
	errNoRequestBody    = errors.New("openapi import: operation has no object request body")
	errUnknownOperation = errors.New("openapi import: operation not found")
)

type options struct {
	sectionTitle string
	multiStep    bool
	allowDrafts  bool
}

// Option tweaks an import.
type Option func(*options)

// WithSectionTitle overrides the generated section's title.
func WithSectionTitle(title string) Option {
	return func(o *options) { o.sectionTitle = title }
}

// WithSettings carries schema settings onto the imported form.
func WithSettings(multiStep, allowDrafts bool) Option {
	return func(o *options) {
		o.multiStep = multiStep
		o.allowDrafts = allowDrafts
	}
}

// Import loads an OpenAPI document and converts the named operation's
// request body into a Form. The result passes schema.Validate before being
// returned.
func Import(ctx context.Context, raw []byte, operationID string, opts ...Option) (schema.Form, error) {
	if len(raw) == 0 {
		return schema.Form{}, errEmptyDocument
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return schema.Form{}, fmt.Errorf("openapi import: load document: %w", err)
	}

	operation := findOperation(spec, operationID)
	if operation == nil {
		return schema.Form{}, fmt.Errorf("%w: %q", errUnknownOperation, operationID)
	}

	body := requestSchema(operation.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return schema.Form{}, errNoRequestBody
	}

	form := schema.Form{
		ID:    operationID,
		Title: firstNonEmpty(operation.Summary, operationID),
		Settings: schema.Settings{
			MultiStep:   o.multiStep,
			AllowDrafts: o.allowDrafts,
		},
		Sections: []schema.Section{{
			ID:          operationID + ".body",
			Title:       firstNonEmpty(o.sectionTitle, operation.Summary, operationID),
			Description: operation.Description,
		}},
	}

	required := make(map[string]struct{}, len(body.Required))
	for _, name := range body.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for order, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		field, err := convertProperty(name, order, ref.Value, isRequired)
		if err != nil {
			return schema.Form{}, err
		}
		form.Sections[0].Fields = append(form.Sections[0].Fields, field)
	}

	if err := schema.Validate(form); err != nil {
		return schema.Form{}, err
	}
	return form, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, contentType := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if mt, ok := body.Value.Content[contentType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range body.Value.Content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// convertProperty maps one schema property onto the closed field-type union
// and the validation-rule variant that matches it.
func convertProperty(name string, order int, src *openapi3.Schema, required bool) (schema.Field, error) {
	field := schema.Field{
		ID:          name,
		Name:        name,
		Label:       firstNonEmpty(src.Title, labelFromName(name)),
		Description: src.Description,
		Order:       order,
	}
	rule := schema.Validation{Required: required}
	hasRule := required

	switch propertyType(src) {
	case "boolean":
		field.Type = schema.FieldTypeCheckbox
	case "integer":
		field.Type = schema.FieldTypeNumber
		rule.Integer = true
		hasRule = true
		applyNumberBounds(&rule, &hasRule, src)
	case "number":
		field.Type = schema.FieldTypeNumber
		applyNumberBounds(&rule, &hasRule, src)
	case "array":
		field.Type = schema.FieldTypeSelect
		field.Multiple = true
		if src.Items != nil && src.Items.Value != nil {
			field.Options = optionsFromEnum(src.Items.Value.Enum)
		}
		if src.MinItems != 0 {
			value := int(src.MinItems)
			rule.MinItems = &value
			hasRule = true
		}
		if src.MaxItems != nil {
			value := int(*src.MaxItems)
			rule.MaxItems = &value
			hasRule = true
		}
	case "string":
		field.Type = stringFieldType(src)
		switch field.Type {
		case schema.FieldTypeSelect:
			field.Options = optionsFromEnum(src.Enum)
		case schema.FieldTypeDate:
			if src.Format == "date-time" {
				rule.Format = schema.FormatDatetimeLocal
				hasRule = true
			}
		default:
			if src.MinLength != 0 {
				value := int(src.MinLength)
				rule.MinLength = &value
				hasRule = true
			}
			if src.MaxLength != nil {
				value := int(*src.MaxLength)
				rule.MaxLength = &value
				hasRule = true
			}
			if src.Pattern != "" {
				rule.Pattern = src.Pattern
				hasRule = true
			}
			if format := stringRuleFormat(src.Format); format != "" && field.Type != schema.FieldTypeEmail {
				rule.Format = format
				hasRule = true
			}
		}
	default:
		return schema.Field{}, fmt.Errorf("openapi import: property %q has unsupported type %q", name, propertyType(src))
	}

	if hasRule {
		field.Validation = &rule
	}
	return field, nil
}

func applyNumberBounds(rule *schema.Validation, hasRule *bool, src *openapi3.Schema) {
	if src.Min != nil {
		value := *src.Min
		rule.Min = &value
		*hasRule = true
	}
	if src.Max != nil {
		value := *src.Max
		rule.Max = &value
		*hasRule = true
	}
	if src.MultipleOf != nil {
		value := *src.MultipleOf
		rule.Step = &value
		*hasRule = true
	}
}

func propertyType(src *openapi3.Schema) string {
	if src.Type == nil {
		return ""
	}
	values := src.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func stringFieldType(src *openapi3.Schema) schema.FieldType {
	if len(src.Enum) > 0 {
		return schema.FieldTypeSelect
	}
	switch src.Format {
	case "email":
		return schema.FieldTypeEmail
	case "date", "date-time":
		return schema.FieldTypeDate
	}
	if multiline, _ := src.Extensions["x-multiline"].(bool); multiline {
		return schema.FieldTypeTextarea
	}
	return schema.FieldTypeText
}

func stringRuleFormat(format string) string {
	switch format {
	case "email":
		return schema.FormatEmail
	case "uri", "url":
		return schema.FormatURL
	case "phone":
		return schema.FormatPhone
	default:
		return ""
	}
}

func optionsFromEnum(values []any) []schema.Option {
	out := make([]schema.Option, 0, len(values))
	for _, value := range values {
		out = append(out, schema.Option{Label: fmt.Sprint(value), Value: value})
	}
	return out
}

func labelFromName(name string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	if cleaned == "" {
		return name
	}
	return strings.ToUpper(cleaned[:1]) + cleaned[1:]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
