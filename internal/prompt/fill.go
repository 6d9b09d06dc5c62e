package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formrun/pkg/conditional"
	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/session"
)

// Filler drives an interactive fill of one session through a Driver,
// honoring visibility, step gating, and the submission lifecycle.
type Filler struct {
	driver Driver
	sess   *session.Session
}

// NewFiller pairs a session with a prompt driver.
func NewFiller(sess *session.Session, driver Driver) *Filler {
	return &Filler{driver: driver, sess: sess}
}

// Run walks every step, prompting for each visible field, and submits at the
// end. An interrupt saves a draft before returning ErrAborted so the next
// run restores it.
func (f *Filler) Run(ctx context.Context) (schema.Submission, error) {
	form := f.sess.Form()

	for {
		if err := f.runStep(ctx, form); err != nil {
			if errors.Is(err, ErrAborted) {
				f.saveDraftOnAbort(ctx)
			}
			return schema.Submission{}, err
		}

		advanced, errs := f.sess.Next()
		if len(errs) > 0 {
			f.showErrors(ctx, errs)
			continue
		}
		if advanced {
			if err := f.sess.SaveDraft(ctx); err != nil {
				_ = f.driver.Info(ctx, "Warning: could not save draft")
			}
			continue
		}
		break
	}

	record, err := f.sess.Submit(ctx)
	if errors.Is(err, session.ErrValidationFailed) {
		f.showErrors(ctx, record.ValidationErrors)
		return record, err
	}
	if err != nil {
		_ = f.driver.Info(ctx, "Submission failed: "+err.Error())
		return record, err
	}
	return record, nil
}

// runStep prompts every visible field of the current step. Visibility is
// re-read after every answer, so fields revealed mid-step get prompted too.
func (f *Filler) runStep(ctx context.Context, form schema.Form) error {
	if form.Settings.ShowProgress && form.Settings.MultiStep {
		step := f.sess.CurrentStep()
		total := f.sess.Navigator().TotalSteps(f.sess.Answers())
		title := step.Section.Title
		if title == "" {
			title = step.Section.ID
		}
		_ = f.driver.Info(ctx, fmt.Sprintf("-- %s (step %d of %d)", title, step.Index+1, total))
	}

	prompted := make(map[string]bool)
	for {
		field, ok := f.nextField(prompted)
		if !ok {
			return nil
		}
		prompted[field.Name] = true
		if field.Disabled || field.Readonly {
			continue
		}
		if err := f.promptField(ctx, field); err != nil {
			return err
		}
		f.sess.Blur(field.Name)
	}
}

func (f *Filler) nextField(prompted map[string]bool) (schema.Field, bool) {
	for _, field := range f.sess.CurrentStep().Fields {
		if !prompted[field.Name] {
			return field, true
		}
	}
	return schema.Field{}, false
}

func (f *Filler) promptField(ctx context.Context, field schema.Field) error {
	for {
		value, err := f.askOnce(ctx, field)
		if err != nil {
			return err
		}
		f.sess.SetAnswer(field.Name, value)
		fieldErrs := f.sess.FieldErrors(field.Name)
		if len(fieldErrs) == 0 {
			return nil
		}
		for _, vErr := range fieldErrs {
			_ = f.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", field.Name, vErr.Message))
		}
	}
}

func (f *Filler) askOnce(ctx context.Context, field schema.Field) (any, error) {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	current := f.sess.Answers()[field.Name]

	switch field.Type {
	case schema.FieldTypeCheckbox:
		def, _ := current.(bool)
		return f.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: field.Description})
	case schema.FieldTypeTextarea:
		return f.driver.TextArea(ctx, InputConfig{Message: label, Default: conditional.String(current), Help: field.Description})
	case schema.FieldTypeNumber:
		return f.askNumber(ctx, field, label, current)
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		if len(field.Options) == 0 {
			return f.driver.Input(ctx, InputConfig{Message: label, Default: conditional.String(current), Help: field.Description})
		}
		if field.Multiple {
			return f.askMultiSelect(ctx, field, label, current)
		}
		return f.askSelect(ctx, field, label, current)
	default:
		// text, email, date
		return f.driver.Input(ctx, InputConfig{
			Message: label,
			Default: conditional.String(current),
			Help:    field.Description,
		})
	}
}

func (f *Filler) askNumber(ctx context.Context, field schema.Field, label string, current any) (any, error) {
	def := ""
	if num, ok := conditional.Number(current); ok {
		def = strconv.FormatFloat(num, 'f', -1, 64)
	}
	for {
		raw, err := f.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: field.Description})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		num, parseErr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if parseErr != nil {
			_ = f.driver.Info(ctx, fmt.Sprintf("Invalid %s: must be a number", field.Name))
			continue
		}
		return num, nil
	}
}

func (f *Filler) askSelect(ctx context.Context, field schema.Field, label string, current any) (any, error) {
	labels := optionLabels(field.Options)
	defaultIdx := -1
	for i, opt := range field.Options {
		if conditional.Equal(opt.Value, current) {
			defaultIdx = i
		}
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		DefaultIndex: defaultIdx,
		Help:         field.Description,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(field.Options) {
		return nil, nil
	}
	return field.Options[idx].Value, nil
}

func (f *Filler) askMultiSelect(ctx context.Context, field schema.Field, label string, current any) (any, error) {
	labels := optionLabels(field.Options)
	var defaults []int
	if items, ok := conditional.Slice(current); ok {
		for i, opt := range field.Options {
			for _, item := range items {
				if conditional.Equal(opt.Value, item) {
					defaults = append(defaults, i)
				}
			}
		}
	}
	indices, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Options:  labels,
		Defaults: defaults,
		Help:     field.Description,
	})
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(field.Options) {
			out = append(out, field.Options[idx].Value)
		}
	}
	return out, nil
}

func (f *Filler) showErrors(ctx context.Context, errs []schema.ValidationError) {
	for _, vErr := range errs {
		name := vErr.Field
		if name == "" {
			name = "form"
		}
		_ = f.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", name, vErr.Message))
	}
}

func (f *Filler) saveDraftOnAbort(ctx context.Context) {
	if err := f.sess.SaveDraft(ctx); err == nil {
		_ = f.driver.Info(ctx, "Draft saved.")
	}
}

func optionLabels(options []schema.Option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		if opt.Label != "" {
			out[i] = opt.Label
		} else {
			out[i] = conditional.String(opt.Value)
		}
	}
	return out
}
