package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store keeps downloaded invoice documents.
type Store interface {
	// Save writes data under name and returns where it was stored.
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStore writes artifacts into a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Base(name)
	if clean == "." || clean == string(filepath.Separator) || strings.TrimSpace(clean) == "" {
		return "", fmt.Errorf("artifact: invalid name %q", name)
	}

	// Write to a temp file first so a partial download never replaces a
	// good artifact.
	tmp, err := os.CreateTemp(s.dir, clean+".*.part")
	if err != nil {
		return "", fmt.Errorf("artifact: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact: write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("artifact: close %s: %w", clean, err)
	}

	target := filepath.Join(s.dir, clean)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("artifact: store %s: %w", clean, err)
	}
	return target, nil
}
