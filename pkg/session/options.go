package session

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formrun/pkg/storage"
	"github.com/goliatone/go-formrun/pkg/validation"
)

// Option configures a session at construction time.
type Option func(*Session)

// WithDraftStore wires the external draft persistence collaborator. Without
// one, SaveDraft and draft restore become no-ops.
func WithDraftStore(store storage.DraftStore) Option {
	return func(s *Session) { s.store = store }
}

// WithSubmit registers the external submit callback invoked once validation
// passes.
func WithSubmit(fn SubmitFunc) Option {
	return func(s *Session) { s.submit = fn }
}

// WithLogger sets the structured logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithAsyncValidators installs the registry consulted on Blur.
func WithAsyncValidators(registry *validation.AsyncRegistry) Option {
	return func(s *Session) { s.async = registry }
}

// WithDebounce overrides the async validation debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}
