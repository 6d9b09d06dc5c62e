package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formrun/pkg/schema"
)

// SaveDraft persists the current snapshot under the schema's draft key with
// the status forced to draft. It is idempotent: repeated calls overwrite the
// same key. Storage failures are logged and surfaced; the session keeps
// editing either way.
func (s *Session) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	store := s.store
	answers := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	s.mu.Unlock()

	if store == nil || !s.form.Settings.AllowDrafts {
		return nil
	}
	if err := store.SetDraft(ctx, s.form.ID, answers); err != nil {
		s.log.Warn().Err(err).Str("form", s.form.ID).Msg("draft save failed")
		return fmt.Errorf("session: save draft: %w", err)
	}
	return nil
}

// Submit runs the full lifecycle: editing -> validating -> complete or
// invalid. Validation covers every currently visible field; async
// validators, when registered, run inline after the synchronous pass. An
// invalid outcome, including a failed external callback, returns the
// session to editing with answers intact, and nothing is persisted.
func (s *Session) Submit(ctx context.Context) (schema.Submission, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return schema.Submission{}, ErrClosed
	}
	if s.state == StateValidating {
		s.mu.Unlock()
		return schema.Submission{}, ErrBusy
	}
	s.state = StateValidating
	s.recomputeLocked()
	errs := s.errorsLocked()
	visible := s.eval.VisibleFields(s.answers)
	data := s.visibleAnswersLocked()
	s.mu.Unlock()

	if len(errs) == 0 && s.async != nil && !s.async.Empty() {
		for _, field := range visible {
			validator, ok := s.async.Lookup(field.Name)
			if !ok {
				continue
			}
			errs = append(errs, validator(ctx, data[field.Name])...)
		}
	}

	if len(errs) > 0 {
		s.setState(StateEditing)
		return s.record(data, schema.StatusInvalid, errs), ErrValidationFailed
	}

	if s.submit != nil {
		if err := s.submit(ctx, data); err != nil {
			s.log.Error().Err(err).Str("form", s.form.ID).Msg("submit callback failed")
			s.setState(StateEditing)
			failure := []schema.ValidationError{{
				Type:    schema.ErrorCustom,
				Message: err.Error(),
			}}
			return s.record(data, schema.StatusInvalid, failure), fmt.Errorf("session: submit: %w", err)
		}
	}

	s.setState(StateComplete)
	s.clearDraftQuietly(ctx)
	return s.record(data, schema.StatusComplete, nil), nil
}

// Reset discards the in-memory answers, deletes the stored draft, and
// returns the session to editing on the first step.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.answers = make(map[string]any)
	s.asyncErrs = make(map[string][]schema.ValidationError)
	s.state = StateEditing
	s.started = time.Now()
	s.nav.Reset()
	s.recomputeLocked()
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.ClearDraft(ctx, s.form.ID); err != nil {
		s.log.Warn().Err(err).Str("form", s.form.ID).Msg("draft clear failed")
		return fmt.Errorf("session: clear draft: %w", err)
	}
	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) record(data map[string]any, status schema.Status, errs []schema.ValidationError) schema.Submission {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	return schema.Submission{
		ID:     uuid.NewString(),
		FormID: s.form.ID,
		Data:   data,
		Metadata: schema.SubmissionMetadata{
			SubmittedAt: time.Now().UTC(),
			Duration:    time.Since(started),
		},
		Status:           status,
		ValidationErrors: errs,
	}
}

// restoreDraft pre-populates answers from storage before any evaluation
// runs. Failures degrade to an empty session with a warning; draft safety
// is never worth blocking the fill.
func (s *Session) restoreDraft() {
	if s.store == nil || !s.form.Settings.AllowDrafts {
		return
	}
	draft, err := s.store.GetDraft(s.ctx, s.form.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("form", s.form.ID).Msg("draft restore failed")
		return
	}
	for k, v := range draft {
		s.answers[k] = v
	}
}

func (s *Session) clearDraftQuietly(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.ClearDraft(ctx, s.form.ID); err != nil {
		s.log.Warn().Err(err).Str("form", s.form.ID).Msg("draft clear failed")
	}
}
