package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps leads as a JSON array in a single machine-local file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath is <user config dir>/ace-chatbot/<StorageKey>.json.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("leads: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "ace-chatbot", StorageKey+".json"), nil
}

func (s *FileStore) Append(_ context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		return err
	}
	return s.write(append(existing, lead))
}

func (s *FileStore) List(_ context.Context) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("leads: remove %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() ([]Lead, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leads: read %s: %w", s.path, err)
	}
	var out []Lead
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("leads: decode %s: %w", s.path, err)
	}
	return out, nil
}

func (s *FileStore) write(all []Lead) error {
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("leads: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("leads: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("leads: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}
