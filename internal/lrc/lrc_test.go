package lrc

import (
	"errors"
	"testing"
	"time"
)

func TestParseSynced(t *testing.T) {
	data := []byte("\xef\xbb\xbf[ar:Daft Punk]\n[ti:Aerodynamic]\n[offset:-250]\n" +
		"[00:12.50]second line\r\n" +
		"[00:01.00][00:30.125]chorus\n" +
		"\n")

	lyr, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !lyr.Synced {
		t.Error("expected synced lyrics")
	}
	if lyr.Tags["ar"] != "Daft Punk" || lyr.Tags["ti"] != "Aerodynamic" {
		t.Errorf("unexpected tags %v", lyr.Tags)
	}
	if lyr.Offset() != -250*time.Millisecond {
		t.Errorf("Offset() = %v", lyr.Offset())
	}

	want := []Line{
		{Time: time.Second, Text: "chorus"},
		{Time: 12*time.Second + 500*time.Millisecond, Text: "second line"},
		{Time: 30*time.Second + 125*time.Millisecond, Text: "chorus"},
	}
	if len(lyr.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lyr.Lines), len(want), lyr.Lines)
	}
	for i := range want {
		if lyr.Lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lyr.Lines[i], want[i])
		}
	}
}

func TestParsePlain(t *testing.T) {
	lyr, err := Parse([]byte("first line\n\n  second line  \n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if lyr.Synced {
		t.Error("plain text should not be synced")
	}
	if len(lyr.Lines) != 2 || lyr.Lines[1].Text != "second line" {
		t.Errorf("unexpected lines %v", lyr.Lines)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"synced", []byte("[00:01.00]hello"), nil},
		{"plain", []byte("hello"), nil},
		{"empty", nil, ErrEmpty},
		{"whitespace", []byte(" \n\t\n"), ErrEmpty},
		{"tags only", []byte("[ar:Someone]\n[ti:Song]\n"), ErrEmpty},
		{"invalid utf8", []byte{0xff, 0xfe, 'a'}, ErrEncoding},
		{"bad seconds", []byte("[00:75.00]nope"), ErrMalformed},
		{"bad fraction", []byte("[00:01.x]nope"), ErrMalformed},
		{"missing colon", []byte("[0001]nope"), ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestString(t *testing.T) {
	lyr := &Lyrics{
		Tags:   map[string]string{"ti": "Song", "ar": "Artist"},
		Lines:  []Line{{Time: 61*time.Second + 230*time.Millisecond, Text: "hi"}},
		Synced: true,
	}
	want := "[ar:Artist]\n[ti:Song]\n[01:01.23]hi\n"
	if got := lyr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	again, err := Parse([]byte(lyr.String()))
	if err != nil || len(again.Lines) != 1 || again.Lines[0].Time != lyr.Lines[0].Time {
		t.Errorf("rendered lyrics did not parse back: %v %v", again, err)
	}
}
