package metadata

import (
	"strconv"
	"strings"
	"unicode"
)

type fieldKind byte

const (
	fieldNumber fieldKind = 'n'
	fieldArtist fieldKind = 'p'
	fieldTitle  fieldKind = 't'
)

// Pattern is one filename grammar. Templates are written with n (track
// number), p (artist) and t (title) separated by literal "." "-" or "--".
type Pattern struct {
	ID       string
	Template string

	fields []fieldKind
	seps   []string
}

// Patterns is the fixed, ordered grammar table. The first entry that
// matches wins, regardless of how specific later entries are.
var Patterns = []Pattern{
	compilePattern("numbered-artist-title", "n.p-t"),
	compilePattern("numbered-title-artist", "n.t--p"),
	compilePattern("numbered-title", "n.t"),
	compilePattern("artist-title", "p-t"),
	compilePattern("title-artist", "t--p"),
	compilePattern("title", "t"),
}

// Match is the result of a successful filename match. Empty Artist or
// Title means the grammar did not capture that field.
type Match struct {
	Pattern string
	Track   int
	Artist  string
	Title   string
}

// MatchFilename applies Patterns in order to a base filename (no directory,
// no extension) and returns the first match, or ErrNoMatch.
func MatchFilename(base string) (Match, error) {
	base = cleanField(base)
	if base == "" {
		return Match{}, ErrNoMatch
	}
	for _, p := range Patterns {
		if m, ok := p.match(base); ok {
			return m, nil
		}
	}
	return Match{}, ErrNoMatch
}

func compilePattern(id, template string) Pattern {
	p := Pattern{ID: id, Template: template}
	var sep strings.Builder
	for _, r := range template {
		switch fieldKind(r) {
		case fieldNumber, fieldArtist, fieldTitle:
			if len(p.fields) > 0 {
				p.seps = append(p.seps, sep.String())
				sep.Reset()
			}
			p.fields = append(p.fields, fieldKind(r))
		default:
			sep.WriteRune(r)
		}
	}
	if len(p.seps) != len(p.fields)-1 || sep.Len() != 0 {
		panic("metadata: malformed filename template " + template)
	}
	return p
}

func (p Pattern) match(s string) (Match, bool) {
	m := Match{Pattern: p.ID}
	rest := s
	for i, field := range p.fields {
		var capture string
		if i < len(p.seps) {
			idx := indexSeparator(rest, p.seps[i])
			if idx < 0 {
				return Match{}, false
			}
			capture = rest[:idx]
			rest = rest[idx+len(p.seps[i]):]
		} else {
			capture = rest
		}

		switch field {
		case fieldNumber:
			n, ok := parseTrackNumber(capture)
			if !ok {
				return Match{}, false
			}
			m.Track = n
		case fieldArtist:
			m.Artist = cleanField(capture)
		case fieldTitle:
			m.Title = cleanField(capture)
		}
	}

	if m.Artist == "" && m.Title == "" {
		return Match{}, false
	}
	// A bare title grammar would accept anything; refuse names that carry
	// no letters at all, such as "0001" or "___".
	if len(p.fields) == 1 && !hasLetter(m.Title) {
		return Match{}, false
	}
	return m, true
}

// indexSeparator finds the first occurrence of sep in s. A single "-" only
// matches a dash that is not part of a longer run, so "a--b" never splits
// on "-".
func indexSeparator(s, sep string) int {
	if sep != "-" {
		return strings.Index(s, sep)
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		if i > 0 && s[i-1] == '-' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '-' {
			continue
		}
		return i
	}
	return -1
}

func parseTrackNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
