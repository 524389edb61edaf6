package lyrics

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"lyricfinder/internal/metadata"
)

// Select merges every successful source's candidates and ranks them
// against the track:
//
//  1. candidates whose key is in ignore are dropped
//  2. duplicates by key collapse onto the higher score
//  3. each survivor is tiered: exact artist+title, title only, or other
//  4. the list is sorted by tier, score, source priority (position in
//     order) and finally key, so the result is a total order
//
// Select does not mutate its inputs and returns the same Ranked for the
// same arguments, whatever order the backends replied in.
func Select(track metadata.Track, results Results, ignore Excluder, order []string) Ranked {
	priority := sourcePriority(results, order)

	sources := make([]string, 0, len(results))
	for name := range results {
		sources = append(sources, name)
	}
	sort.Slice(sources, func(i, j int) bool {
		pi, pj := priority[sources[i]], priority[sources[j]]
		if pi != pj {
			return pi < pj
		}
		return sources[i] < sources[j]
	})

	byKey := make(map[string]int)
	var merged []Candidate
	for _, name := range sources {
		res := results[name]
		if res.Err != nil {
			continue
		}
		for _, c := range res.Candidates {
			key := c.Key()
			if key == "" {
				continue
			}
			if ignore != nil && ignore.Contains(key) {
				continue
			}
			c.Source = name
			c.priority = priority[name]
			if idx, ok := byKey[key]; ok {
				if c.Score > merged[idx].Score {
					merged[idx] = c
				}
				continue
			}
			byKey[key] = len(merged)
			merged = append(merged, c)
		}
	}

	if len(merged) == 0 {
		return Ranked{}
	}

	m := newMatcher(track)
	for i := range merged {
		merged[i].tier = m.tier(merged[i])
		merged[i].Exact = merged[i].tier == TierExact
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.Key() < b.Key()
	})

	return Ranked(merged)
}

// sourcePriority numbers sources by configuration order. Sources missing
// from order rank after every configured one.
func sourcePriority(results Results, order []string) map[string]int {
	priority := make(map[string]int, len(results))
	for i, name := range order {
		if _, seen := priority[name]; !seen {
			priority[name] = i
		}
	}
	for name := range results {
		if _, ok := priority[name]; !ok {
			priority[name] = len(order)
		}
	}
	return priority
}

type matcher struct {
	artist string
	title  string
	fold   cases.Caser
}

func newMatcher(track metadata.Track) *matcher {
	m := &matcher{fold: cases.Fold()}
	if track.HasArtist() {
		m.artist = m.canonical(track.Artist)
	}
	m.title = m.canonical(track.Title)
	return m
}

// canonical is the comparison form: NFC, case-folded, trimmed.
func (m *matcher) canonical(s string) string {
	return m.fold.String(norm.NFC.String(strings.TrimSpace(s)))
}

func (m *matcher) tier(c Candidate) Tier {
	if m.title == "" || m.canonical(c.Title) != m.title {
		return TierOther
	}
	if m.artist != "" && m.canonical(c.Artist) == m.artist {
		return TierExact
	}
	return TierTitle
}
