// Package localfile is a lyrics backend that searches lyric files in local
// directories by name.
package localfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/gosimple/slug"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
	"lyricfinder/pkg/utils"
)

const (
	Name = "local"

	minSimilarity = 0.5
)

// Finder implements lyrics.Backend over a set of lyric directories.
type Finder struct {
	dirs []string
}

func New(dirs ...string) *Finder {
	return &Finder{dirs: dirs}
}

func (f *Finder) Name() string { return Name }

// Search scores every lyric file whose slugged name is close to
// "artist-title" or "title". The URI is the file's absolute path.
func (f *Finder) Search(ctx context.Context, q lyrics.Query) ([]lyrics.Candidate, error) {
	if q.Title == "" {
		return nil, nil
	}

	files, err := utils.FindLyricFiles(f.dirs...)
	if err != nil {
		return nil, err
	}

	wants := []string{slug.Make(q.Title)}
	if q.Artist != "" {
		wants = append([]string{slug.Make(q.Artist + "-" + q.Title)}, wants...)
	}

	var out []lyrics.Candidate
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		name := slug.Make(stem)

		var best float64
		for _, want := range wants {
			if s := similarity(name, want); s > best {
				best = s
			}
		}
		if best < minSimilarity {
			continue
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		c := lyrics.Candidate{
			Source: Name,
			Title:  stem,
			URI:    abs,
			Score:  best,
		}
		if m, err := metadata.MatchFilename(stem); err == nil {
			c.Title = m.Title
			c.Artist = m.Artist
		}
		out = append(out, c)
	}
	return out, nil
}

// Download reads the candidate file.
func (f *Finder) Download(_ context.Context, c lyrics.Candidate) ([]byte, error) {
	path := lyrics.Key(c.URI)
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("not a local lyric file: %q", c.URI)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lyrics: %w", err)
	}
	return data, nil
}

// similarity is 1 - distance/longest, in runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}
