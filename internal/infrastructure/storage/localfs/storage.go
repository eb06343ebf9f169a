package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ScratchStore holds uploaded audio for the lifetime of a single request. The
// cleanup func returned by Save removes the artifact and anything derived from
// it (the ffmpeg-normalized copy shares the key prefix), so a voice submission
// leaves nothing on disk whichever way it exits.
type ScratchStore struct {
	basePath string
}

func New(basePath string) (*ScratchStore, error) {
	if basePath == "" {
		basePath = os.TempDir()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &ScratchStore{basePath: basePath}, nil
}

func (s *ScratchStore) Save(_ context.Context, filename string, data io.Reader) (string, func(), error) {
	key := uuid.NewString()
	path := filepath.Join(s.basePath, key+"_"+sanitizeFilename(filename))

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, fmt.Errorf("close scratch file: %w", err)
	}

	cleanup := func() {
		matches, err := filepath.Glob(filepath.Join(s.basePath, key+"_*"))
		if err != nil {
			return
		}
		for _, m := range matches {
			_ = os.Remove(m)
		}
	}
	return path, cleanup, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "audio.bin"
	}
	return base
}
