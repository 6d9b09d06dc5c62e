// Package session owns one in-progress form fill: the answer snapshot, the
// submission lifecycle (editing, validating, complete or invalid), draft
// persistence, and per-field async validation. All recomputation happens
// synchronously inside the mutating calls; the embedding application drives
// the session and reads the results, nothing is scheduled behind its back.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formrun/pkg/conditional"
	"github.com/goliatone/go-formrun/pkg/navigator"
	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/storage"
	"github.com/goliatone/go-formrun/pkg/validation"
)

// State is the submission lifecycle phase.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateComplete   State = "complete"
	StateInvalid    State = "invalid"
)

var (
	// ErrValidationFailed reports a submit blocked by validation errors;
	// the session is back in editing with the answers intact.
	ErrValidationFailed = errors.New("session: submission has validation errors")
	// ErrBusy reports a lifecycle call while another submit is running.
	ErrBusy = errors.New("session: submission already in progress")
	// ErrClosed reports use after Close.
	ErrClosed = errors.New("session: closed")
)

// SubmitFunc is the external submit callback supplied by the embedding
// application. A returned error marks the attempt invalid without
// discarding the user's answers.
type SubmitFunc func(ctx context.Context, answers map[string]any) error

// Session is a single fill session over one schema. It is safe for
// concurrent use, though the intended model is one driving goroutine plus
// async validation workers.
type Session struct {
	form    schema.Form
	eval    *conditional.Evaluator
	checker *validation.FormChecker
	nav     *navigator.Navigator

	store    storage.DraftStore
	submit   SubmitFunc
	log      zerolog.Logger
	async    *validation.AsyncRegistry
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   sync.WaitGroup
	answers   map[string]any
	state     State
	errs      []schema.ValidationError
	asyncErrs map[string][]schema.ValidationError
	timers    map[string]*time.Timer
	started   time.Time
	closed    bool
}

// New validates and compiles the schema, restores any stored draft, and
// returns a session in the editing state. Configuration problems in the
// schema block the session entirely.
func New(form schema.Form, opts ...Option) (*Session, error) {
	if err := schema.Validate(form); err != nil {
		return nil, err
	}
	checker, err := validation.CompileForm(form)
	if err != nil {
		return nil, err
	}

	eval := conditional.New(form)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		form:      form,
		eval:      eval,
		checker:   checker,
		nav:       navigator.New(form, eval, checker),
		log:       zerolog.Nop(),
		debounce:  300 * time.Millisecond,
		ctx:       ctx,
		cancel:    cancel,
		answers:   make(map[string]any),
		state:     StateEditing,
		asyncErrs: make(map[string][]schema.ValidationError),
		timers:    make(map[string]*time.Timer),
		started:   time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.restoreDraft()
	s.recomputeLocked()
	return s, nil
}

// Form returns the schema the session runs.
func (s *Session) Form() schema.Form { return s.form }

// Navigator exposes the step cursor for this session.
func (s *Session) Navigator() *navigator.Navigator { return s.nav }

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetAnswer records a value and synchronously recomputes visibility and the
// full visible-field error list. Every conditional in the schema is
// re-evaluated, not just ones downstream of the change; schemas are small
// and the recompute stays cycle-proof. The fresh error list is returned.
func (s *Session) SetAnswer(name string, value any) []schema.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[name] = value
	// a new value supersedes any async result computed for the old one
	delete(s.asyncErrs, name)
	s.recomputeLocked()
	return s.errorsLocked()
}

// Answers returns a copy of the current snapshot.
func (s *Session) Answers() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Errors returns the latest error list for visible fields, synchronous
// results merged with any async findings.
func (s *Session) Errors() []schema.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorsLocked()
}

// FieldErrors filters Errors to one field.
func (s *Session) FieldErrors(name string) []schema.ValidationError {
	var out []schema.ValidationError
	for _, err := range s.Errors() {
		if err.Field == name {
			out = append(out, err)
		}
	}
	return out
}

// VisibleFields returns the fields visible under the current answers.
func (s *Session) VisibleFields() []schema.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval.VisibleFields(s.answers)
}

// VisibleSections returns the sections visible under the current answers.
func (s *Session) VisibleSections() []schema.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval.VisibleSections(s.answers)
}

// Recompute re-evaluates visibility and validation without changing any
// answer. Embedding applications call it after external state changes.
func (s *Session) Recompute() []schema.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	return s.errorsLocked()
}

// Next delegates to the navigator with the current snapshot.
func (s *Session) Next() (bool, []schema.ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Next(s.answers)
}

// Previous delegates to the navigator with the current snapshot.
func (s *Session) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav.Previous(s.answers)
}

// CurrentStep resolves the active step against the current snapshot.
func (s *Session) CurrentStep() navigator.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current(s.answers)
}

// Progress reports the step progress ratio for indicators.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Progress(s.answers)
}

// Close abandons the session: in-flight async validations are cancelled and
// their results discarded. Stored drafts are left alone.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, timer := range s.timers {
		if timer.Stop() {
			s.pending.Done()
		}
	}
	s.cancel()
}

// recomputeLocked refreshes the visible-field error list from the current
// snapshot. Hidden fields drop out of the list entirely.
func (s *Session) recomputeLocked() {
	visible := s.eval.VisibleFields(s.answers)
	s.errs = s.checker.Check(visible, s.answers)

	// async findings for fields that went invisible no longer apply
	visibleNames := make(map[string]struct{}, len(visible))
	for _, field := range visible {
		visibleNames[field.Name] = struct{}{}
	}
	for name := range s.asyncErrs {
		if _, ok := visibleNames[name]; !ok {
			delete(s.asyncErrs, name)
		}
	}
}

func (s *Session) errorsLocked() []schema.ValidationError {
	out := append([]schema.ValidationError(nil), s.errs...)
	for _, errs := range s.asyncErrs {
		out = append(out, errs...)
	}
	return out
}

// visibleAnswersLocked restricts the snapshot to currently visible fields;
// hidden fields contribute no key to the submission record.
func (s *Session) visibleAnswersLocked() map[string]any {
	out := make(map[string]any)
	for _, field := range s.eval.VisibleFields(s.answers) {
		if value, ok := s.answers[field.Name]; ok {
			out[field.Name] = value
		}
	}
	return out
}
