package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestIgnoreStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.yaml")
	store := NewIgnoreStore(path)

	keys, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty list, got %v", keys)
	}

	want := []string{"/lyrics/a.lrc", "lrclib://12"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := NewIgnoreStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Download:") || !strings.Contains(string(data), "ignore-path:") {
		t.Errorf("unexpected state file layout:\n%s", data)
	}
}

func TestIgnoreStoreReadsExistingLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	content := "Download:\n  ignore-path:\n    - /music/x.lrc\n    - netease://5\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := NewIgnoreStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"/music/x.lrc", "netease://5"}) {
		t.Errorf("Load() = %v", got)
	}
}

func TestIgnoreStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("Download: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewIgnoreStore(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}
