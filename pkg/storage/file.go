package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per draft key under a state directory. It
// backs the CLI so drafts survive between runs.
type FileStore struct {
	dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: state directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(formID string) string {
	return filepath.Join(s.dir, DraftKey(formID)+".json")
}

// GetDraft reads the draft file; a missing file means no draft.
func (s *FileStore) GetDraft(ctx context.Context, formID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(formID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read draft: %w", err)
	}
	var answers map[string]any
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("storage: decode draft: %w", err)
	}
	return answers, nil
}

// SetDraft writes the snapshot atomically via a temp file rename.
func (s *FileStore) SetDraft(ctx context.Context, formID string, answers map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode draft: %w", err)
	}
	tmp := s.path(formID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write draft: %w", err)
	}
	if err := os.Rename(tmp, s.path(formID)); err != nil {
		return fmt.Errorf("storage: commit draft: %w", err)
	}
	return nil
}

// ClearDraft deletes the draft file; a missing file is not an error.
func (s *FileStore) ClearDraft(ctx context.Context, formID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(formID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: clear draft: %w", err)
	}
	return nil
}
