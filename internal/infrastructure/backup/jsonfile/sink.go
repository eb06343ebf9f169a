package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/civicgrid/complaint-intake/internal/core/domain"
)

// Sink mirrors the full complaint set to a JSON snapshot file. Each call
// overwrites the previous snapshot; this is a best-effort durability aid and
// callers must not fail a request when it errors.
type Sink struct {
	path string
}

func New(path string) *Sink {
	if path == "" {
		path = "./data/backup_complaints.json"
	}
	return &Sink{path: path}
}

func (s *Sink) Mirror(_ context.Context, records []domain.Complaint) error {
	if records == nil {
		records = []domain.Complaint{}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup dir: %w", err)
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal backup snapshot: %w", err)
	}

	// Write-then-rename keeps a torn write from clobbering the last good
	// snapshot.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write backup snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace backup snapshot: %w", err)
	}
	return nil
}
