package session

import (
	"time"

	"github.com/goliatone/go-formrun/pkg/conditional"
	"github.com/goliatone/go-formrun/pkg/validation"
)

// Blur schedules the field's async validator, if one is registered. The
// request is debounced per field and fire-and-forget: it never blocks the
// caller, and a result for a value the user has since edited is discarded.
// Staleness is decided by value identity, not arrival order, so re-entering
// the same value keeps a fresh result valid.
func (s *Session) Blur(field string) {
	if s.async == nil {
		return
	}
	validator, ok := s.async.Lookup(field)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	// async checks only run once the synchronous checks pass
	for _, err := range s.errs {
		if err.Field == field {
			return
		}
	}

	value := s.answers[field]
	if old, exists := s.timers[field]; exists && old.Stop() {
		// the superseded request never fires
		s.pending.Done()
	}
	s.pending.Add(1)
	s.timers[field] = time.AfterFunc(s.debounce, func() {
		defer s.pending.Done()
		s.runAsync(field, validator, value)
	})
}

func (s *Session) runAsync(field string, validator validation.AsyncValidator, value any) {
	if s.ctx.Err() != nil {
		return
	}
	result := validator(s.ctx, value)
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// discard results for superseded values
	if !conditional.Equal(s.answers[field], value) {
		return
	}
	if len(result) == 0 {
		delete(s.asyncErrs, field)
		return
	}
	s.asyncErrs[field] = result
}

// Flush blocks until every async validation scheduled before the call has
// either applied its result or been discarded. Intended for tests and for
// callers that want settled errors before reading them.
func (s *Session) Flush() {
	s.pending.Wait()
}
