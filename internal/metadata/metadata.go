package metadata

import (
	"errors"
	"fmt"

	"github.com/gosimple/slug"
)

// UnknownArtist is the sentinel artist used when neither tags nor the
// filename carry one.
const UnknownArtist = "Unknown"

var (
	// ErrInsufficientMetadata means no title could be derived from tags or filename.
	ErrInsufficientMetadata = errors.New("insufficient metadata")
	// ErrNoMatch means a base filename fits none of the known grammars.
	ErrNoMatch = errors.New("filename matches no known pattern")
)

// RawTags holds whatever tag fields the player or the file exposes.
// Any field may be empty.
type RawTags struct {
	Artist string
	Title  string
	Album  string
}

// Track is the canonical description of what is currently playing.
// After a successful Normalize both Artist and Title are non-empty.
type Track struct {
	Artist string
	Title  string
	Album  string
	Path   string
}

// HasArtist reports whether the artist is known rather than the sentinel.
func (t Track) HasArtist() bool {
	return t.Artist != "" && t.Artist != UnknownArtist
}

// Key returns a stable identifier for the track, used to key stored
// lyric assignments.
func (t Track) Key() string {
	artist := t.Artist
	if !t.HasArtist() {
		artist = "unknown"
	}
	return slug.Make(artist) + "/" + slug.Make(t.Title)
}

func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// NormalizationError reports that no usable query could be built for a path.
type NormalizationError struct {
	Path string
	Err  error
}

func (e *NormalizationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("normalize: %v", e.Err)
	}
	return fmt.Sprintf("normalize %q: %v", e.Path, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
