package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/storage"
	"github.com/goliatone/go-formrun/pkg/validation"
)

func contactForm() schema.Form {
	return schema.Form{
		ID:       "contact",
		Settings: schema.Settings{AllowDrafts: true},
		Sections: []schema.Section{{
			ID: "main",
			Fields: []schema.Field{
				{ID: "f1", Name: "name", Type: schema.FieldTypeText, Validation: &schema.Validation{Required: true}},
				{ID: "f2", Name: "hasPet", Type: schema.FieldTypeCheckbox},
				{
					ID: "f3", Name: "petName", Type: schema.FieldTypeText,
					Validation:  &schema.Validation{Required: true},
					Conditional: &schema.ConditionalRule{Field: "hasPet", Operator: schema.OperatorEquals, Value: true},
				},
			},
		}},
	}
}

func mustSession(t *testing.T, form schema.Form, opts ...Option) *Session {
	t.Helper()
	sess, err := New(form, opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess
}

func TestSetAnswerRecomputesErrors(t *testing.T) {
	t.Parallel()

	sess := mustSession(t, contactForm())

	errs := sess.SetAnswer("hasPet", true)
	// name and the now-visible petName are both required
	if len(errs) != 2 {
		t.Fatalf("want two required errors, got %v", errs)
	}

	errs = sess.SetAnswer("hasPet", false)
	if len(errs) != 1 || errs[0].Field != "name" {
		t.Fatalf("hidden field must drop out of the error list, got %v", errs)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := mustSession(t, contactForm(), WithDraftStore(store))
	first.SetAnswer("name", "Ada")
	first.SetAnswer("hasPet", true)
	if err := first.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft returned error: %v", err)
	}
	first.Close()

	second := mustSession(t, contactForm(), WithDraftStore(store))
	want := map[string]any{"name": "Ada", "hasPet": true}
	if diff := cmp.Diff(want, second.Answers()); diff != "" {
		t.Fatalf("draft not restored (-want +got):\n%s", diff)
	}
}

func TestSaveDraftIsNoopWhenDraftsDisabled(t *testing.T) {
	t.Parallel()

	form := contactForm()
	form.Settings.AllowDrafts = false
	store := storage.NewMemoryStore()
	ctx := context.Background()

	sess := mustSession(t, form, WithDraftStore(store))
	sess.SetAnswer("name", "Ada")
	if err := sess.SaveDraft(ctx); err != nil {
		t.Fatalf("SaveDraft returned error: %v", err)
	}
	draft, err := store.GetDraft(ctx, form.ID)
	if err != nil || draft != nil {
		t.Fatalf("draft stored despite allowDrafts=false: %v %v", draft, err)
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	t.Parallel()

	sess := mustSession(t, contactForm())
	ctx := context.Background()

	sub, err := sess.Submit(ctx)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("want ErrValidationFailed, got %v", err)
	}
	if sub.Status != schema.StatusInvalid || len(sub.ValidationErrors) == 0 {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sess.State() != StateEditing {
		t.Fatalf("session must return to editing, got %v", sess.State())
	}
}

func TestSubmitCallbackFailureKeepsAnswers(t *testing.T) {
	t.Parallel()

	sess := mustSession(t, contactForm(), WithSubmit(func(ctx context.Context, answers map[string]any) error {
		return errors.New("network down")
	}))
	sess.SetAnswer("name", "Ada")
	ctx := context.Background()

	sub, err := sess.Submit(ctx)
	if err == nil || errors.Is(err, ErrValidationFailed) {
		t.Fatalf("want a wrapped callback error, got %v", err)
	}
	if sub.Status != schema.StatusInvalid {
		t.Fatalf("callback failure must record an invalid attempt, got %v", sub.Status)
	}
	if len(sub.ValidationErrors) != 1 || !strings.Contains(sub.ValidationErrors[0].Message, "network down") {
		t.Fatalf("failure message not reproduced: %v", sub.ValidationErrors)
	}
	if sess.State() != StateEditing {
		t.Fatalf("session must return to editing, got %v", sess.State())
	}
	if got := sess.Answers()["name"]; got != "Ada" {
		t.Fatalf("answers must stay intact for retry, got %v", got)
	}
}

func TestSubmitSuccessClearsDraft(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()
	var delivered map[string]any

	sess := mustSession(t, contactForm(),
		WithDraftStore(store),
		WithSubmit(func(ctx context.Context, answers map[string]any) error {
			delivered = answers
			return nil
		}),
	)
	sess.SetAnswer("name", "Ada")
	sess.SetAnswer("hasPet", false)
	sess.SaveDraft(ctx)

	sub, err := sess.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if sub.Status != schema.StatusComplete || sub.ID == "" || sub.FormID != "contact" {
		t.Fatalf("unexpected submission %+v", sub)
	}
	if sess.State() != StateComplete {
		t.Fatalf("State = %v, want complete", sess.State())
	}

	// the hidden petName field contributes nothing, visible fields are all in
	want := map[string]any{"name": "Ada", "hasPet": false}
	if diff := cmp.Diff(want, delivered); diff != "" {
		t.Fatalf("callback payload mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, sub.Data); diff != "" {
		t.Fatalf("submission data mismatch (-want +got):\n%s", diff)
	}

	draft, err := store.GetDraft(ctx, "contact")
	if err != nil || draft != nil {
		t.Fatalf("draft must be cleared after success: %v %v", draft, err)
	}
}

func TestSubmitExcludesHiddenAnswers(t *testing.T) {
	t.Parallel()

	sess := mustSession(t, contactForm())
	sess.SetAnswer("name", "Ada")
	sess.SetAnswer("hasPet", true)
	sess.SetAnswer("petName", "Barky")
	// hiding the pet question removes its answer from the submission, and
	// its required rule no longer blocks the submit
	sess.SetAnswer("hasPet", false)

	sub, err := sess.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, ok := sub.Data["petName"]; ok {
		t.Fatalf("hidden answer leaked into submission: %v", sub.Data)
	}
}

func TestSubmitRejectsReentry(t *testing.T) {
	t.Parallel()

	var (
		sess    *Session
		reentry error
	)
	sess = mustSession(t, contactForm(), WithSubmit(func(ctx context.Context, answers map[string]any) error {
		_, reentry = sess.Submit(ctx)
		return nil
	}))
	sess.SetAnswer("name", "Ada")

	if _, err := sess.Submit(context.Background()); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !errors.Is(reentry, ErrBusy) {
		t.Fatalf("want ErrBusy from re-entrant submit, got %v", reentry)
	}
}

func TestResetClearsAnswersAndDraft(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()

	sess := mustSession(t, contactForm(), WithDraftStore(store))
	sess.SetAnswer("name", "Ada")
	sess.SaveDraft(ctx)

	if err := sess.Reset(ctx); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if len(sess.Answers()) != 0 {
		t.Fatalf("answers not cleared: %v", sess.Answers())
	}
	draft, err := store.GetDraft(ctx, "contact")
	if err != nil || draft != nil {
		t.Fatalf("draft must be gone after reset: %v %v", draft, err)
	}
	if sess.State() != StateEditing {
		t.Fatalf("State = %v, want editing", sess.State())
	}
}

func TestBlurRunsAsyncValidator(t *testing.T) {
	t.Parallel()

	registry := validation.NewAsyncRegistry()
	registry.Register("name", func(ctx context.Context, value any) []schema.ValidationError {
		if value == "taken" {
			return []schema.ValidationError{{Field: "name", Type: schema.ErrorCustom, Message: "already in use"}}
		}
		return nil
	})

	sess := mustSession(t, contactForm(),
		WithAsyncValidators(registry),
		WithDebounce(time.Millisecond),
	)

	sess.SetAnswer("name", "taken")
	sess.Blur("name")
	sess.Flush()

	errs := sess.FieldErrors("name")
	if len(errs) != 1 || errs[0].Message != "already in use" {
		t.Fatalf("async error not applied: %v", errs)
	}

	// a clean value clears the finding
	sess.SetAnswer("name", "free")
	sess.Blur("name")
	sess.Flush()
	if errs := sess.FieldErrors("name"); len(errs) != 0 {
		t.Fatalf("stale async error survived: %v", errs)
	}
}

func TestBlurDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	registry := validation.NewAsyncRegistry()
	registry.Register("name", func(ctx context.Context, value any) []schema.ValidationError {
		return []schema.ValidationError{{Field: "name", Type: schema.ErrorCustom, Message: "bad: " + value.(string)}}
	})

	sess := mustSession(t, contactForm(),
		WithAsyncValidators(registry),
		WithDebounce(20*time.Millisecond),
	)

	sess.SetAnswer("name", "first")
	sess.Blur("name")
	// the value changes before the debounced check lands, so its result is
	// stale and must be dropped
	sess.SetAnswer("name", "second")
	sess.Flush()

	if errs := sess.FieldErrors("name"); len(errs) != 0 {
		t.Fatalf("stale result applied: %v", errs)
	}
}

func TestBlurSkipsFieldsWithSyncErrors(t *testing.T) {
	t.Parallel()

	called := false
	registry := validation.NewAsyncRegistry()
	registry.Register("name", func(ctx context.Context, value any) []schema.ValidationError {
		called = true
		return nil
	})

	sess := mustSession(t, contactForm(),
		WithAsyncValidators(registry),
		WithDebounce(time.Millisecond),
	)

	// name is required and empty, so the async check never runs
	sess.Blur("name")
	sess.Flush()
	if called {
		t.Fatalf("async validator ran despite failing sync checks")
	}
}

func TestCloseCancelsPendingAsync(t *testing.T) {
	t.Parallel()

	registry := validation.NewAsyncRegistry()
	registry.Register("name", func(ctx context.Context, value any) []schema.ValidationError {
		return []schema.ValidationError{{Field: "name", Type: schema.ErrorCustom, Message: "late"}}
	})

	sess := mustSession(t, contactForm(),
		WithAsyncValidators(registry),
		WithDebounce(50*time.Millisecond),
	)
	sess.SetAnswer("name", "Ada")
	sess.Blur("name")
	sess.Close()

	// Flush must return promptly, the stopped timer never fires
	done := make(chan struct{})
	go func() {
		sess.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Flush hung after Close")
	}

	if _, err := sess.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("want ErrClosed, got %v", err)
	}
}

func TestNewRejectsBrokenSchema(t *testing.T) {
	t.Parallel()

	form := contactForm()
	form.Sections[0].Fields[0].Validation = &schema.Validation{Pattern: "(unclosed"}

	if _, err := New(form); err == nil {
		t.Fatalf("expected configuration problems to block the session")
	}
}
