package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore persists artifacts under a root directory. Writes go through
// a temp file and rename, so readers never observe partial artifacts.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Put writes data under key, creating parent directories as needed.
func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename artifact: %w", err)
	}

	return nil
}

// Get reads the data under key.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return data, nil
}
