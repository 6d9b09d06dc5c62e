package validation

import (
	"context"
	"sync"

	"github.com/goliatone/go-formrun/pkg/schema"
)

// AsyncValidator runs an out-of-band check for one field, typically against
// an external collaborator such as a uniqueness endpoint. It only runs after
// the field's synchronous checks pass; returned errors merge into the same
// error list.
type AsyncValidator func(ctx context.Context, value any) []schema.ValidationError

// AsyncRegistry maps field names to their registered async validators. It is
// safe for concurrent use; the session schedules lookups from prompt-thread
// callbacks while results arrive on worker goroutines.
type AsyncRegistry struct {
	mu         sync.RWMutex
	validators map[string]AsyncValidator
}

// NewAsyncRegistry returns an empty registry.
func NewAsyncRegistry() *AsyncRegistry {
	return &AsyncRegistry{validators: make(map[string]AsyncValidator)}
}

// Register installs (or replaces) the validator for a field name.
func (r *AsyncRegistry) Register(field string, validator AsyncValidator) {
	if r == nil || field == "" || validator == nil {
		return
	}
	r.mu.Lock()
	r.validators[field] = validator
	r.mu.Unlock()
}

// Lookup returns the validator registered for the field, if any.
func (r *AsyncRegistry) Lookup(field string) (AsyncValidator, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	validator, ok := r.validators[field]
	return validator, ok
}

// Empty reports whether no validators are registered.
func (r *AsyncRegistry) Empty() bool {
	if r == nil {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators) == 0
}
