// Package cachetags keeps rendered output in memory and drops it in bulk by
// cache tag, so one content change invalidates every block that listed it.
package cachetags

import (
	"sync"

	"RelatedNews/internal/ports"
)

type entry struct {
	payload []byte
	tags    []string
}

// Store is a tag-indexed in-memory cache safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	byTag   map[string]map[string]struct{}
	// epoch advances on every Invalidate; invalidatedAt keeps the epoch of
	// each tag's latest invalidation.
	epoch         uint64
	invalidatedAt map[string]uint64
}

var _ ports.BundleCache = (*Store)(nil)

// NewStore builds an empty cache.
func NewStore() *Store {
	return &Store{
		entries:       map[string]entry{},
		byTag:         map[string]map[string]struct{}{},
		invalidatedAt: map[string]uint64{},
	}
}

// Get returns the cached payload for key together with its tags.
func (s *Store) Get(key string) ([]byte, []string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil, false
	}
	return e.payload, append([]string(nil), e.tags...), true
}

// Mark returns the current invalidation epoch. Pass it to SetIfFresh after
// building the payload.
func (s *Store) Mark() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// SetIfFresh replaces the entry under key, but only when none of its tags
// was invalidated after mark was taken. It reports whether it stored.
func (s *Store) SetIfFresh(key string, payload []byte, tags []string, mark uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tag := range tags {
		if s.invalidatedAt[tag] > mark {
			return false
		}
	}
	s.setLocked(key, payload, tags)
	return true
}

// Invalidate removes every entry carrying any of tags and returns how many were dropped.
func (s *Store) Invalidate(tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	dropped := 0
	for _, tag := range tags {
		s.invalidatedAt[tag] = s.epoch
		for key := range s.byTag[tag] {
			if s.dropLocked(key) {
				dropped++
			}
		}
		delete(s.byTag, tag)
	}
	return dropped
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) setLocked(key string, payload []byte, tags []string) {
	s.dropLocked(key)

	stored := make([]byte, len(payload))
	copy(stored, payload)
	s.entries[key] = entry{payload: stored, tags: append([]string(nil), tags...)}

	for _, tag := range tags {
		keys, ok := s.byTag[tag]
		if !ok {
			keys = map[string]struct{}{}
			s.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (s *Store) dropLocked(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	for _, tag := range e.tags {
		if keys, ok := s.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(s.byTag, tag)
			}
		}
	}
	return true
}
