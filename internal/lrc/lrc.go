// Package lrc parses LRC lyric files and validates downloaded payloads.
//
// An LRC file is a list of lines, each optionally prefixed by one or more
// [mm:ss.xx] time tags. Lines made only of an ID tag such as [ar:Artist]
// carry metadata. Files without any time tag are accepted as plain lyrics.
package lrc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrEmpty     = errors.New("empty lyrics")
	ErrEncoding  = errors.New("lyrics are not valid UTF-8")
	ErrMalformed = errors.New("malformed time tag")
)

// Line is one lyric line. Time is zero for unsynced lyrics.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics is a parsed LRC document.
type Lyrics struct {
	Tags   map[string]string
	Lines  []Line
	Synced bool
}

// Offset returns the [offset:] tag, in milliseconds, as a duration.
func (l *Lyrics) Offset() time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(l.Tags["offset"]))
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Parse reads an LRC document. Synced lines are returned sorted by time.
func Parse(data []byte) (*Lyrics, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	if !utf8.Valid(data) {
		return nil, ErrEncoding
	}

	out := &Lyrics{Tags: make(map[string]string)}
	var plain []Line

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")

		if key, val, ok := idTag(line); ok {
			out.Tags[key] = val
			continue
		}

		times, text, err := timeTags(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if len(times) == 0 {
			if strings.TrimSpace(line) != "" {
				plain = append(plain, Line{Text: strings.TrimSpace(line)})
			}
			continue
		}
		out.Synced = true
		for _, t := range times {
			out.Lines = append(out.Lines, Line{Time: t, Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if out.Synced {
		sort.SliceStable(out.Lines, func(i, j int) bool {
			return out.Lines[i].Time < out.Lines[j].Time
		})
	} else {
		out.Lines = plain
	}
	if len(out.Lines) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Validate reports whether a downloaded payload is usable lyrics.
func Validate(data []byte) error {
	_, err := Parse(data)
	return err
}

// idTag recognises a whole-line [key:value] tag whose key is alphabetic.
func idTag(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", "", false
	}
	inner := s[1 : len(s)-1]
	key, val, ok := strings.Cut(inner, ":")
	if !ok || key == "" {
		return "", "", false
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", "", false
		}
	}
	return strings.ToLower(key), strings.TrimSpace(val), true
}

// timeTags strips the leading time tags from line. A leading bracket whose
// content starts with a digit must be a valid time tag.
func timeTags(line string) ([]time.Duration, string, error) {
	var times []time.Duration
	rest := strings.TrimLeft(line, " \t")
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		inner := rest[1:end]
		if inner == "" || inner[0] < '0' || inner[0] > '9' {
			break
		}
		d, err := parseTime(inner)
		if err != nil {
			return nil, "", err
		}
		times = append(times, d)
		rest = rest[end+1:]
	}
	return times, strings.TrimSpace(rest), nil
}

// parseTime accepts mm:ss, mm:ss.xx and mm:ss.xxx.
func parseTime(s string) (time.Duration, error) {
	minStr, secStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: [%s]", ErrMalformed, s)
	}
	mins, err := strconv.Atoi(minStr)
	if err != nil || mins < 0 {
		return 0, fmt.Errorf("%w: [%s]", ErrMalformed, s)
	}

	secPart, fracPart, _ := strings.Cut(secStr, ".")
	sec, err := strconv.Atoi(secPart)
	if err != nil || sec < 0 || sec >= 60 || len(secPart) == 0 {
		return 0, fmt.Errorf("%w: [%s]", ErrMalformed, s)
	}

	var frac time.Duration
	if fracPart != "" {
		if len(fracPart) > 3 {
			return 0, fmt.Errorf("%w: [%s]", ErrMalformed, s)
		}
		f, err := strconv.Atoi(fracPart)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: [%s]", ErrMalformed, s)
		}
		for i := len(fracPart); i < 3; i++ {
			f *= 10
		}
		frac = time.Duration(f) * time.Millisecond
	}

	return time.Duration(mins)*time.Minute + time.Duration(sec)*time.Second + frac, nil
}

// String renders the lyrics back to LRC.
func (l *Lyrics) String() string {
	var b strings.Builder
	keys := make([]string, 0, len(l.Tags))
	for k := range l.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "[%s:%s]\n", k, l.Tags[k])
	}
	for _, line := range l.Lines {
		if l.Synced {
			m := line.Time / time.Minute
			s := (line.Time % time.Minute) / time.Second
			cs := (line.Time % time.Second) / (10 * time.Millisecond)
			fmt.Fprintf(&b, "[%02d:%02d.%02d]", m, s, cs)
		}
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
