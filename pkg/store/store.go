// Package store abstracts the host document storage as a narrow read/write
// interface so the sync engine can be tested without touching a real vault.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentStore is path-addressed whole-document storage.
type DocumentStore interface {
	Read(path string) (string, error)
	Write(path string, content string) error
	Exists(path string) bool
}

// NormalizePath appends the markdown extension when the configured target
// path lacks one.
func NormalizePath(path string) string {
	if strings.HasSuffix(path, ".md") {
		return path
	}
	return path + ".md"
}

// FileStore is a DocumentStore rooted at a directory on disk.
type FileStore struct {
	Root string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Root: dir}
}

func (s *FileStore) resolve(path string) string {
	return filepath.Join(s.Root, NormalizePath(path))
}

func (s *FileStore) Read(path string) (string, error) {
	b, err := os.ReadFile(s.resolve(path))
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return string(b), nil
}

func (s *FileStore) Write(path string, content string) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Exists(path string) bool {
	_, err := os.Stat(s.resolve(path))
	return err == nil
}
