package policy

import (
	"lyricfinder/internal/lyrics"
)

// IgnoreStore persists the ignore list.
type IgnoreStore interface {
	Load() ([]string, error)
	Save(keys []string) error
}

// IgnoreSet is the ordered list of candidate keys the user rejected.
// It is owned by a single Policy; readers work on a Snapshot.
type IgnoreSet struct {
	keys  []string
	index lyrics.KeySet
}

// NewIgnoreSet builds a set from persisted keys, dropping duplicates.
func NewIgnoreSet(keys ...string) *IgnoreSet {
	s := &IgnoreSet{index: lyrics.NewKeySet()}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add appends key. It reports false if key was already present or empty.
func (s *IgnoreSet) Add(key string) bool {
	k := lyrics.Key(key)
	if k == "" || s.Contains(k) {
		return false
	}
	s.keys = append(s.keys, k)
	s.index.Add(k)
	return true
}

func (s *IgnoreSet) Contains(key string) bool {
	if s == nil {
		return false
	}
	return s.index.Contains(key)
}

// Keys returns the keys in insertion order.
func (s *IgnoreSet) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Snapshot returns an independent read-only copy.
func (s *IgnoreSet) Snapshot() lyrics.KeySet {
	if s == nil {
		return lyrics.NewKeySet()
	}
	return lyrics.NewKeySet(s.keys...)
}

// MemoryStore keeps the ignore list in memory. Used when no state file is
// configured and in tests.
type MemoryStore struct {
	Keys []string
	Err  error
}

func (m *MemoryStore) Load() ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string(nil), m.Keys...), nil
}

func (m *MemoryStore) Save(keys []string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Keys = append([]string(nil), keys...)
	return nil
}
