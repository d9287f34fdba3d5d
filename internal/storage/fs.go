// Package storage is the blob store for rendered chart images. Blobs live
// on the local filesystem under one root, keyed as
// {ownerID}/{graphID}-{theme}-{updatedAtMillis}.png, and are served
// publicly by the web server under /charts/.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is a filesystem-backed blob store.
type FSStore struct {
	root string
}

// NewFSStore creates the store root if needed.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(key string) (string, error) {
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes a blob at key, creating parent directories.
func (s *FSStore) Put(key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is stored at exactly key.
func (s *FSStore) Exists(key string) bool {
	p, err := s.path(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Get returns the blob bytes at key.
func (s *FSStore) Get(key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// RemoveMatching deletes every blob in dir whose base name starts with
// prefix and returns how many were removed. A missing dir is not an error.
func (s *FSStore) RemoveMatching(dir, prefix string) (int, error) {
	p, err := s.path(dir)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list blob dir %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(p, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove blob %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// List returns the base names of blobs in dir whose names start with prefix.
func (s *FSStore) List(dir, prefix string) ([]string, error) {
	p, err := s.path(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list blob dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Root returns the store root for serving blobs over HTTP.
func (s *FSStore) Root() string { return s.root }
