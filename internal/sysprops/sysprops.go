// Package sysprops holds the process-wide system-property table.
//
// System properties are the tool's analogue of -D definitions: a flat
// string table seeded from command-line arguments at startup and extended
// by systemProp.-prefixed entries found in properties files. The table is
// process-wide state, but tests and embedders can create private stores.
package sysprops

import (
	"strings"
	"sync"
)

// Store is a mutex-guarded string table. The zero value is not usable;
// create stores with NewStore.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

var process = NewStore()

// Process returns the shared process-wide store.
func Process() *Store {
	return process
}

// Set stores a value under key, replacing any previous value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Lookup returns the value for key and whether it is present.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Get returns the value for key, or the empty string when absent.
func (s *Store) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// ByPrefix returns all entries whose key starts with prefix, keyed by the
// full property name. The result is a copy.
func (s *Store) ByPrefix(prefix string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Snapshot returns a copy of the full table.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Clear removes all entries. Intended for tests.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}
