// Package storage defines the draft persistence port the runtime calls into.
// The backing store is chosen by the embedding application; the memory and
// file implementations here serve tests and the CLI.
package storage

import "context"

// DraftKey builds the single logical storage key used per schema.
func DraftKey(formID string) string {
	return "form-draft-" + formID
}

// DraftStore persists unfinished answer snapshots keyed by form id. Get
// returns (nil, nil) when no draft exists; errors are real I/O failures and
// are surfaced to the caller without retries.
type DraftStore interface {
	GetDraft(ctx context.Context, formID string) (map[string]any, error)
	SetDraft(ctx context.Context, formID string, answers map[string]any) error
	ClearDraft(ctx context.Context, formID string) error
}
