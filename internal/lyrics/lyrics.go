// Package lyrics fans a normalized track out to lyric sources and ranks
// what comes back.
//
// Backend is defined here, where it is consumed; implementations live
// under internal/provider and internal/lrcdb.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"lyricfinder/internal/metadata"
)

var (
	// ErrTimeout marks a backend that had not replied when the dispatch deadline passed.
	ErrTimeout = errors.New("timed out")
	// ErrUnknownSource is returned when downloading a candidate whose source is not configured.
	ErrUnknownSource = errors.New("unknown lyric source")
)

// Query is what a backend receives. Empty fields are absent.
type Query struct {
	Artist string
	Title  string
	Album  string
}

// QueryFor builds the backend query for a normalized track. The unknown
// artist sentinel is never sent to a backend.
func QueryFor(t metadata.Track) Query {
	q := Query{Title: t.Title, Album: t.Album}
	if t.HasArtist() {
		q.Artist = t.Artist
	}
	return q
}

// Backend is a lyric source: local files, an assignment database or a
// remote service.
type Backend interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Candidate, error)
	Download(ctx context.Context, c Candidate) ([]byte, error)
}

// Tier is the coarse match-quality bucket, compared before any score.
type Tier int

const (
	TierOther Tier = iota
	TierTitle
	TierExact
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierTitle:
		return "title"
	default:
		return "other"
	}
}

// Candidate is one backend's proposed lyric file for the current track.
// Score is backend-supplied; Exact and the tier are set by Select.
type Candidate struct {
	Source string
	Title  string
	Artist string
	URI    string
	Score  float64
	Exact  bool

	tier     Tier
	priority int
}

// Tier returns the match tier assigned during selection.
func (c Candidate) Tier() Tier { return c.tier }

// Key is the stable identity of the candidate, used for deduplication and
// by ignore sets.
func (c Candidate) Key() string { return Key(c.URI) }

// Key normalizes a candidate URI or path into its stable string key.
// Local paths are cleaned; URLs get a lower-cased scheme and host.
func Key(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil && u.Path != "" {
			return filepath.Clean(u.Path)
		}
	}
	if filepath.IsAbs(uri) {
		return filepath.Clean(uri)
	}
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		return u.String()
	}
	return uri
}

// Excluder reports whether a candidate key must not be offered.
type Excluder interface {
	Contains(key string) bool
}

// KeySet is a plain set of candidate keys. It is the read-only snapshot
// handed to Select and the transient per-cycle exclusion set.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from raw URIs or keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func (s KeySet) Contains(key string) bool {
	_, ok := s[Key(key)]
	return ok
}

func (s KeySet) Add(key string) {
	if k := Key(key); k != "" {
		s[k] = struct{}{}
	}
}

// SourceResult is what one backend produced during a dispatch.
type SourceResult struct {
	Candidates []Candidate
	Err        error
}

// Results maps a source name to its outcome.
type Results map[string]SourceResult

// Failed returns the names of sources that reported an error.
func (r Results) Failed() []string {
	var names []string
	for name, res := range r {
		if res.Err != nil {
			names = append(names, name)
		}
	}
	return names
}

// BackendError isolates one source's failure.
type BackendError struct {
	Source string
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Ranked is the deduplicated, ordered candidate list. The first element is
// the best match.
type Ranked []Candidate

// Best returns the top candidate.
func (r Ranked) Best() (Candidate, bool) {
	if len(r) == 0 {
		return Candidate{}, false
	}
	return r[0], true
}

// Without returns the candidates whose keys ex does not contain,
// preserving order.
func (r Ranked) Without(ex Excluder) Ranked {
	if ex == nil {
		return r
	}
	out := make(Ranked, 0, len(r))
	for _, c := range r {
		if !ex.Contains(c.Key()) {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the candidate with the given key.
func (r Ranked) Find(uri string) (Candidate, bool) {
	key := Key(uri)
	for _, c := range r {
		if c.Key() == key {
			return c, true
		}
	}
	return Candidate{}, false
}
