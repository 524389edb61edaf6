package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
	"lyricfinder/internal/pipeline"
)

func TestRenderTableHandlesShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "two"}}, []columnAlignment{alignRight})
	if !strings.Contains(out, "two") || !strings.Contains(out, "A") {
		t.Errorf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("no headers should render nothing")
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("Lyrics", statusOK, "found", false)
	if !strings.Contains(got, "Lyrics:") || !strings.Contains(got, "[OK] found") {
		t.Errorf("unexpected line %q", got)
	}
	colored := renderStatusLine("Lyrics", statusError, "", true)
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("expected ANSI colour codes, got %q", colored)
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name    string
		out     pipeline.Outcome
		want    []string
		notWant []string
	}{
		{
			name: "found",
			out: pipeline.Outcome{
				State:     pipeline.StateFound,
				Track:     metadata.Track{Artist: "Band", Title: "Song"},
				Candidate: lyrics.Candidate{Source: "lrclib", URI: "lrclib://1"},
				Ranked:    lyrics.Ranked{{Source: "lrclib", URI: "lrclib://1"}},
			},
			want:    []string{"Band - Song", "[OK] found lrclib (lrclib://1)"},
			notWant: []string{"URI"},
		},
		{
			name: "choices",
			out: pipeline.Outcome{
				State:  pipeline.StateChoices,
				Track:  metadata.Track{Artist: "Band", Title: "Song"},
				Ranked: lyrics.Ranked{{Source: "netease", Title: "Song", URI: "netease://7", Score: 0.5}},
				Failed: []string{"lrclib"},
			},
			want: []string{"1 candidates", "netease://7", "0.50", "Unavailable", "lrclib"},
		},
		{
			name: "insufficient metadata",
			out:  pipeline.Outcome{State: pipeline.StateNotFound, Err: errors.New("insufficient metadata")},
			want: []string{"Track:", "[ERROR] not found insufficient metadata"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printOutcome(&buf, tt.out, false)
			got := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output should not contain %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Error("buffers are never terminals")
	}
}

func TestShouldSkipConfig(t *testing.T) {
	root := newRootCommand()
	initCmd, _, err := root.Find([]string{"config", "init"})
	if err != nil {
		t.Fatal(err)
	}
	if !shouldSkipConfig(initCmd) {
		t.Error("config init must run without a config")
	}
	findCmd, _, err := root.Find([]string{"find"})
	if err != nil {
		t.Fatal(err)
	}
	if shouldSkipConfig(findCmd) {
		t.Error("find needs the config")
	}
}
