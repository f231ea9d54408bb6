// Package guard provides the in-process mutual-exclusion registry that keeps
// concurrent ingestion workers off the same unit of work. Claims are an
// optimization against worker races, not a durability mechanism — the store's
// uniqueness checks remain the source of truth.
package guard

import "sync"

// ClaimSet is a non-reentrant set of string claims.
type ClaimSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewClaimSet() *ClaimSet {
	return &ClaimSet{keys: make(map[string]struct{})}
}

// TryClaim atomically adds key if absent. A false return means another
// in-flight worker already owns the key; the caller abandons silently.
func (s *ClaimSet) TryClaim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.keys[key]; taken {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// Release removes key unconditionally. Safe to call for a key never claimed.
func (s *ClaimSet) Release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// Len reports the number of live claims (used by tests and diagnostics).
func (s *ClaimSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// Guard bundles the two independent claim sets of the ingestion pipeline:
// one keyed by filename, one by parsed business number.
type Guard struct {
	Files   *ClaimSet
	Numbers *ClaimSet
}

func New() *Guard {
	return &Guard{Files: NewClaimSet(), Numbers: NewClaimSet()}
}
