// Package validation compiles a field's declarative rule into an executable
// checker. Checkers are pure: the same field schema and value always produce
// the same error list, and compilation surfaces configuration mistakes so
// check time never does.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-formrun/pkg/conditional"
	"github.com/goliatone/go-formrun/pkg/schema"
)

// Checker validates one answer value and returns every violated rule.
type Checker func(value any) []schema.ValidationError

// stepTolerance absorbs float noise when checking step reachability.
const stepTolerance = 1e-9

// Compile builds the checker for one field. The returned error is a
// configuration problem (unknown type, invalid pattern); a well-formed field
// always compiles.
func Compile(field schema.Field) (Checker, error) {
	if !schema.KnownFieldType(field.Type) {
		return nil, schema.ConfigError{Field: field.Name, Message: fmt.Sprintf("unknown field type %q", field.Type)}
	}

	rule := field.Validation
	if rule == nil {
		rule = &schema.Validation{}
	}

	var pattern *regexp.Regexp
	if rule.Pattern != "" {
		compiled, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, schema.ConfigError{Field: field.Name, Message: "invalid pattern: " + err.Error()}
		}
		pattern = compiled
	}

	check := checkerFor(field, *rule, pattern)
	name := field.Name
	required := rule.Required
	message := rule.Message

	return func(value any) []schema.ValidationError {
		if Empty(value) {
			if required {
				return []schema.ValidationError{fieldError(name, schema.ErrorRequired, message, "this field is required")}
			}
			return nil
		}
		return check(value)
	}, nil
}

// checkerFor dispatches on the closed field-type union. Adding a type means
// adding a case here; the default branch only serves values Compile already
// rejected.
func checkerFor(field schema.Field, rule schema.Validation, pattern *regexp.Regexp) Checker {
	switch field.Type {
	case schema.FieldTypeText, schema.FieldTypeTextarea:
		return stringChecker(field.Name, rule, pattern, "")
	case schema.FieldTypeEmail:
		// the email type implies the email format even without a rule
		format := rule.Format
		if format == "" {
			format = schema.FormatEmail
		}
		return stringChecker(field.Name, rule, pattern, format)
	case schema.FieldTypeNumber:
		return numberChecker(field.Name, rule)
	case schema.FieldTypeDate:
		return dateChecker(field.Name, rule)
	case schema.FieldTypeSelect, schema.FieldTypeRadio, schema.FieldTypeCheckbox:
		return selectChecker(field, rule)
	default:
		return func(any) []schema.ValidationError { return nil }
	}
}

func stringChecker(name string, rule schema.Validation, pattern *regexp.Regexp, impliedFormat string) Checker {
	format := rule.Format
	if format == "" {
		format = impliedFormat
	}
	return func(value any) []schema.ValidationError {
		text := conditional.String(value)
		var errs []schema.ValidationError

		// length violations are mutually exclusive; report at most one
		if rule.MinLength != nil && len([]rune(text)) < *rule.MinLength {
			errs = append(errs, fieldError(name, schema.ErrorMin, rule.Message,
				fmt.Sprintf("must be at least %d characters", *rule.MinLength)))
		} else if rule.MaxLength != nil && len([]rune(text)) > *rule.MaxLength {
			errs = append(errs, fieldError(name, schema.ErrorMax, rule.Message,
				fmt.Sprintf("must be at most %d characters", *rule.MaxLength)))
		}

		if pattern != nil && !pattern.MatchString(text) {
			errs = append(errs, fieldError(name, schema.ErrorPattern, rule.Message, "does not match the required pattern"))
		}

		if format != "" && !FormatValid(format, text) {
			errs = append(errs, fieldError(name, schema.ErrorFormat, rule.Message,
				fmt.Sprintf("must be a valid %s", format)))
		}
		return errs
	}
}

func numberChecker(name string, rule schema.Validation) Checker {
	return func(value any) []schema.ValidationError {
		num, ok := conditional.Number(value)
		if !ok {
			return []schema.ValidationError{fieldError(name, schema.ErrorFormat, rule.Message, "must be a number")}
		}

		var errs []schema.ValidationError
		if rule.Min != nil && num < *rule.Min {
			errs = append(errs, fieldError(name, schema.ErrorMin, rule.Message,
				fmt.Sprintf("must be at least %v", *rule.Min)))
		}
		if rule.Max != nil && num > *rule.Max {
			errs = append(errs, fieldError(name, schema.ErrorMax, rule.Message,
				fmt.Sprintf("must be at most %v", *rule.Max)))
		}
		if rule.Integer && num != math.Trunc(num) {
			errs = append(errs, fieldError(name, schema.ErrorCustom, rule.Message, "must be a whole number"))
		}
		if rule.Step != nil && *rule.Step > 0 {
			base := 0.0
			if rule.Min != nil {
				base = *rule.Min
			}
			offset := math.Abs(math.Remainder(num-base, *rule.Step))
			if offset > stepTolerance {
				errs = append(errs, fieldError(name, schema.ErrorCustom, rule.Message,
					fmt.Sprintf("must be a multiple of %v", *rule.Step)))
			}
		}
		return errs
	}
}

func dateChecker(name string, rule schema.Validation) Checker {
	return func(value any) []schema.ValidationError {
		parsed, err := schema.ParseDate(conditional.String(value), rule.Format)
		if err != nil {
			return []schema.ValidationError{fieldError(name, schema.ErrorFormat, rule.Message, "must be a valid date")}
		}
		if rule.Format != schema.FormatDatetimeLocal {
			parsed = truncateToDay(parsed)
		}

		var errs []schema.ValidationError
		if rule.MinDate != "" {
			if min, err := schema.ParseDate(rule.MinDate, rule.Format); err == nil {
				if rule.Format != schema.FormatDatetimeLocal {
					min = truncateToDay(min)
				}
				if parsed.Before(min) {
					errs = append(errs, fieldError(name, schema.ErrorMin, rule.Message,
						"must be on or after "+rule.MinDate))
				}
			}
		}
		if rule.MaxDate != "" {
			if max, err := schema.ParseDate(rule.MaxDate, rule.Format); err == nil {
				if rule.Format != schema.FormatDatetimeLocal {
					max = truncateToDay(max)
				}
				if parsed.After(max) {
					errs = append(errs, fieldError(name, schema.ErrorMax, rule.Message,
						"must be on or before "+rule.MaxDate))
				}
			}
		}
		return errs
	}
}

func selectChecker(field schema.Field, rule schema.Validation) Checker {
	name := field.Name
	multiple := field.Multiple
	return func(value any) []schema.ValidationError {
		items, isSlice := conditional.Slice(value)
		if !multiple || !isSlice {
			return nil
		}

		var errs []schema.ValidationError
		if rule.MinItems != nil && len(items) < *rule.MinItems {
			errs = append(errs, fieldError(name, schema.ErrorMin, rule.Message,
				fmt.Sprintf("select at least %d options", *rule.MinItems)))
		}
		if rule.MaxItems != nil && len(items) > *rule.MaxItems {
			errs = append(errs, fieldError(name, schema.ErrorMax, rule.Message,
				fmt.Sprintf("select at most %d options", *rule.MaxItems)))
		}
		return errs
	}
}

// Empty reports whether a value counts as absent for required checks: nil,
// blank strings, and empty slices.
func Empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		if items, ok := conditional.Slice(value); ok {
			return len(items) == 0
		}
		return false
	}
}

func fieldError(field string, kind schema.ErrorKind, override, fallback string) schema.ValidationError {
	message := fallback
	if override != "" {
		message = override
	}
	return schema.ValidationError{Field: field, Type: kind, Message: message}
}

// truncateToDay drops the time component so plain date rules compare
// calendar dates.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
