package config

import (
	"fmt"
	"sync"
)

// Store guards the live configuration and persists accepted edits.
type Store struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewStore wraps a loaded config. An empty path disables persistence.
func NewStore(cfg *Config, path string) *Store {
	return &Store{cfg: cfg, path: path}
}

// Analysis returns a snapshot of the current analysis settings.
func (s *Store) Analysis() Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Analysis()
}

// Config returns a shallow copy of the current config.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Update applies edit to a copy, validates it and saves it before making it live.
func (s *Store) Update(edit func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.cfg
	next.Portfolio.Holdings = append([]Holding(nil), s.cfg.Portfolio.Holdings...)
	next.Benchmarks = append([]string(nil), s.cfg.Benchmarks...)
	edit(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}
	if s.path != "" {
		if err := next.Save(s.path); err != nil {
			return err
		}
	}
	s.cfg = &next
	return nil
}
