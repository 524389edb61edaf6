package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsAudioFile(t *testing.T) {
	tests := map[string]bool{
		"song.mp3":   true,
		"SONG.FLAC":  true,
		".ogg":       true,
		"lyrics.lrc": false,
		"noext":      false,
	}
	for path, want := range tests {
		if got := IsAudioFile(path); got != want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFindLyricFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Queen")
	os.MkdirAll(sub, 0755)

	os.WriteFile(filepath.Join(sub, "Queen-Bohemian Rhapsody.lrc"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "Imagine.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0644)

	files, err := FindLyricFiles(dir, filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatalf("FindLyricFiles error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 lyric files, got %d: %v", len(files), files)
	}
	if files[0] > files[1] {
		t.Errorf("files not sorted: %v", files)
	}
}

func TestSaveLyrics(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lyrics")

	path, err := SaveLyrics(dir, "AC/DC - Thunderstruck.lrc", []byte("[00:01.00]Thunder"))
	if err != nil {
		t.Fatalf("SaveLyrics error: %v", err)
	}
	if filepath.Base(path) != "AC_DC - Thunderstruck.lrc" {
		t.Errorf("unexpected file name %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[00:01.00]Thunder" {
		t.Errorf("content = %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the saved file in %s, got %d entries", dir, len(entries))
	}
}

func TestSaveLyricsEmptyName(t *testing.T) {
	if _, err := SaveLyrics(t.TempDir(), "", nil); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestSaveLyricsReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveLyrics(dir, "Band - Song.lrc", []byte("old")); err != nil {
		t.Fatal(err)
	}
	path, err := SaveLyrics(dir, "Band - Song.lrc", []byte("[00:02.00]new"))
	if err != nil {
		t.Fatalf("SaveLyrics error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "[00:02.00]new" {
		t.Errorf("content = %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected a single file in %s, got %d entries", dir, len(entries))
	}
}
