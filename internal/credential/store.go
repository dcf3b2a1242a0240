// Package credential holds the single generation-service secret for the
// process. The store is seeded from the environment, settable at runtime,
// and optionally persisted to a file so the key survives restarts the way
// the dashboard's browser storage did.
package credential

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

type Store struct {
	mu   sync.RWMutex
	key  string
	path string // empty means memory-only
}

// NewStore creates a store persisting to path; pass "" for memory-only.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads a previously persisted key. A missing file is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	s.mu.Lock()
	s.key = strings.TrimSpace(string(data))
	s.mu.Unlock()
	return nil
}

// Seed sets the key from the environment unless one is already present.
func (s *Store) Seed(key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == "" {
		s.key = key
	}
}

// Get returns the key and whether one is configured.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.key != ""
}

// Set stores and persists a new key.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("set credential: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := os.WriteFile(s.path, []byte(key+"\n"), 0o600); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	}
	s.key = key
	return nil
}

// Clear removes the key from memory and disk.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = ""
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clear credential: %w", err)
		}
	}
	return nil
}
