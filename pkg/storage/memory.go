package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process DraftStore. Snapshots are copied on the way
// in and out so callers cannot mutate stored state through shared maps.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]map[string]any
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]map[string]any)}
}

// GetDraft returns the stored snapshot or (nil, nil) when absent.
func (s *MemoryStore) GetDraft(ctx context.Context, formID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[DraftKey(formID)]
	if !ok {
		return nil, nil
	}
	return copyAnswers(draft), nil
}

// SetDraft overwrites the draft for the form id.
func (s *MemoryStore) SetDraft(ctx context.Context, formID string, answers map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[DraftKey(formID)] = copyAnswers(answers)
	return nil
}

// ClearDraft removes the draft; clearing a missing draft is not an error.
func (s *MemoryStore) ClearDraft(ctx context.Context, formID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, DraftKey(formID))
	return nil
}

func copyAnswers(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
