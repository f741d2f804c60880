// Package storage is the external key-value persistence collaborator:
// JSON snapshots keyed by string, read at session start and written after
// each mutation. A missing key means "no saved state", never an error.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// Save marshals v and replaces the snapshot under key atomically
// (write to a temp file, then rename).
func (s *FSStore) Save(key string, v any) error {
	if key == "" {
		return errors.New("empty key")
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// Load unmarshals the snapshot under key into v. ok is false when no
// snapshot exists; callers start fresh.
func (s *FSStore) Load(key string, v any) (ok bool, err error) {
	buf, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes the snapshot under key. Clearing a missing key is a no-op.
func (s *FSStore) Clear(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FSStore) path(key string) string {
	key = strings.ReplaceAll(key, "..", "")
	return filepath.Join(s.base, filepath.Clean(key)+".json")
}
