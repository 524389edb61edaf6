package metadata

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode"

	"lyricfinder/pkg/utils"
)

// Normalize derives a canonical Track from whatever the player exposed.
//
// Tags win: when they carry both artist and title those are used as-is,
// only trimmed and stripped of control characters. Otherwise the base
// filename is run through MatchFilename and fills whichever field the tags
// left empty. A track with a title but no artist gets UnknownArtist. When
// no title can be found at all the result is a *NormalizationError
// wrapping ErrInsufficientMetadata.
func Normalize(tags *RawTags, path string) (Track, error) {
	var raw RawTags
	if tags != nil {
		raw = RawTags{
			Artist: cleanField(tags.Artist),
			Title:  cleanField(tags.Title),
			Album:  cleanField(tags.Album),
		}
	}

	track := Track{
		Artist: raw.Artist,
		Title:  raw.Title,
		Album:  raw.Album,
		Path:   path,
	}
	if track.Artist != "" && track.Title != "" {
		return track, nil
	}

	if base := BaseName(path); base != "" {
		if m, err := MatchFilename(base); err == nil {
			if track.Title == "" {
				track.Title = m.Title
			}
			if track.Artist == "" {
				track.Artist = m.Artist
			}
		}
	}

	if track.Title == "" {
		return Track{}, &NormalizationError{Path: path, Err: ErrInsufficientMetadata}
	}
	if track.Artist == "" {
		track.Artist = UnknownArtist
	}
	return track, nil
}

// BaseName strips the directory and a known audio or lyric extension from
// a file path or file:// URI. Any other suffix is part of the name, so
// "03.Queen-Bohemian Rhapsody" and "Suite No.12" keep their text after the dot.
func BaseName(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "file://") {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}

	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	if ext := filepath.Ext(base); utils.IsAudioFile(ext) || utils.IsLyricFile(ext) {
		base = strings.TrimSuffix(base, ext)
	}
	return cleanField(base)
}

// cleanField turns tabs and line breaks into spaces, drops other control
// characters and trims surrounding whitespace.
func cleanField(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r) && unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
