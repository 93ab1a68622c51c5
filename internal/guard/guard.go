// Package guard rejects a second exclusive operation on a key while the
// first is still running.
package guard

import (
	"sync"

	"github.com/sdkdesk/sdkdesk/internal/sdk"
)

// Set holds the keys of operations in progress. The zero value is ready
// to use.
type Set struct {
	mu   sync.Mutex
	keys map[sdk.Key]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{keys: make(map[sdk.Key]struct{})}
}

// TryEnter claims key. It returns false if key is already claimed.
func (s *Set) TryEnter(key sdk.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = make(map[sdk.Key]struct{})
	}
	if _, busy := s.keys[key]; busy {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Exit releases key. Releasing a free key is a no-op.
func (s *Set) Exit(key sdk.Key) {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
}

// Has reports whether key is claimed.
func (s *Set) Has(key sdk.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of claimed keys.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Do runs fn while holding key. If key is already held, fn is not run and
// ran is false. The key is released however fn returns, including by panic.
func (s *Set) Do(key sdk.Key, fn func() error) (ran bool, err error) {
	if !s.TryEnter(key) {
		return false, nil
	}
	defer s.Exit(key)
	return true, fn()
}
