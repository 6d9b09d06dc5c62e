package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/session"
	"github.com/goliatone/go-formrun/pkg/storage"
)

// scriptedDriver replays queued answers per prompt message. A queued error is
// returned as the prompt's failure; running out of script fails the test.
type scriptedDriver struct {
	t      *testing.T
	script map[string][]any
	infos  []string
}

func newScriptedDriver(t *testing.T, script map[string][]any) *scriptedDriver {
	return &scriptedDriver{t: t, script: script}
}

func (d *scriptedDriver) pop(message string) any {
	d.t.Helper()
	queue := d.script[message]
	if len(queue) == 0 {
		d.t.Fatalf("no scripted answer left for prompt %q", message)
	}
	d.script[message] = queue[1:]
	return queue[0]
}

func (d *scriptedDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	switch v := d.pop(cfg.Message).(type) {
	case string:
		return v, nil
	case error:
		return "", v
	default:
		d.t.Fatalf("prompt %q scripted with %T, want string", cfg.Message, v)
		return "", nil
	}
}

func (d *scriptedDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	switch v := d.pop(cfg.Message).(type) {
	case bool:
		return v, nil
	case error:
		return false, v
	default:
		d.t.Fatalf("prompt %q scripted with %T, want bool", cfg.Message, v)
		return false, nil
	}
}

func (d *scriptedDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	switch v := d.pop(cfg.Message).(type) {
	case int:
		return v, nil
	case error:
		return 0, v
	default:
		d.t.Fatalf("prompt %q scripted with %T, want int", cfg.Message, v)
		return 0, nil
	}
}

func (d *scriptedDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	switch v := d.pop(cfg.Message).(type) {
	case []int:
		return v, nil
	case error:
		return nil, v
	default:
		d.t.Fatalf("prompt %q scripted with %T, want []int", cfg.Message, v)
		return nil, nil
	}
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Info(ctx context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func fillForm() schema.Form {
	return schema.Form{
		ID:       "intake",
		Settings: schema.Settings{AllowDrafts: true},
		Sections: []schema.Section{{
			ID: "main",
			Fields: []schema.Field{
				{ID: "f1", Name: "name", Type: schema.FieldTypeText, Label: "Name", Validation: &schema.Validation{Required: true, MinLength: intPtr(2)}},
				{ID: "f2", Name: "hasPet", Type: schema.FieldTypeCheckbox, Label: "Any pets?"},
				{
					ID: "f3", Name: "petName", Type: schema.FieldTypeText, Label: "Pet name",
					Validation:  &schema.Validation{Required: true},
					Conditional: &schema.ConditionalRule{Field: "hasPet", Operator: schema.OperatorEquals, Value: true},
				},
				{
					ID: "f4", Name: "channel", Type: schema.FieldTypeSelect, Label: "Preferred channel",
					Options: []schema.Option{
						{Label: "Email", Value: "email"},
						{Label: "Phone", Value: "phone"},
					},
				},
			},
		}},
	}
}

func intPtr(v int) *int { return &v }

func TestRunPromptsRevealedFieldsAndSubmits(t *testing.T) {
	t.Parallel()

	sess, err := session.New(fillForm())
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	defer sess.Close()

	driver := newScriptedDriver(t, map[string][]any{
		"Name":              {"Ada"},
		"Any pets?":         {true},
		"Pet name":          {"Barky"},
		"Preferred channel": {1},
	})

	record, err := NewFiller(sess, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if record.Status != schema.StatusComplete {
		t.Fatalf("Status = %v, want complete", record.Status)
	}
	want := map[string]any{
		"name":    "Ada",
		"hasPet":  true,
		"petName": "Barky",
		"channel": "phone",
	}
	if diff := cmp.Diff(want, record.Data); diff != "" {
		t.Fatalf("submission data mismatch (-want +got):\n%s", diff)
	}
}

func TestRunSkipsHiddenField(t *testing.T) {
	t.Parallel()

	sess, err := session.New(fillForm())
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	defer sess.Close()

	// no script entry for "Pet name": prompting it would fail the test
	driver := newScriptedDriver(t, map[string][]any{
		"Name":              {"Ada"},
		"Any pets?":         {false},
		"Preferred channel": {0},
	})

	record, err := NewFiller(sess, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, ok := record.Data["petName"]; ok {
		t.Fatalf("hidden field answered: %v", record.Data)
	}
}

func TestRunRepromptsUntilValid(t *testing.T) {
	t.Parallel()

	sess, err := session.New(fillForm())
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	defer sess.Close()

	driver := newScriptedDriver(t, map[string][]any{
		"Name":              {"A", "Ada"},
		"Any pets?":         {false},
		"Preferred channel": {0},
	})

	if _, err := NewFiller(sess, driver).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var sawRejection bool
	for _, msg := range driver.infos {
		if strings.Contains(msg, "Invalid name") {
			sawRejection = true
		}
	}
	if !sawRejection {
		t.Fatalf("expected a rejection message for the short name, got %v", driver.infos)
	}
}

func TestRunSavesDraftOnAbort(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	sess, err := session.New(fillForm(), session.WithDraftStore(store))
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	defer sess.Close()

	driver := newScriptedDriver(t, map[string][]any{
		"Name":      {"Ada"},
		"Any pets?": {ErrAborted},
	})

	_, err = NewFiller(sess, driver).Run(context.Background())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}

	draft, err := store.GetDraft(context.Background(), "intake")
	if err != nil {
		t.Fatalf("GetDraft returned error: %v", err)
	}
	if draft["name"] != "Ada" {
		t.Fatalf("partial answers not saved on abort: %v", draft)
	}
}

func TestRunSkipsReadonlyFields(t *testing.T) {
	t.Parallel()

	form := fillForm()
	form.Sections[0].Fields[1].Readonly = true
	// the pet section trigger can never flip, so petName stays hidden

	sess, err := session.New(form)
	if err != nil {
		t.Fatalf("session.New returned error: %v", err)
	}
	defer sess.Close()

	driver := newScriptedDriver(t, map[string][]any{
		"Name":              {"Ada"},
		"Preferred channel": {0},
	})

	if _, err := NewFiller(sess, driver).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
