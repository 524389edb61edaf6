package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"lyricfinder/internal/config"
	"lyricfinder/internal/logger"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	lyricDir := filepath.Join(dir, "lyrics")
	if err := os.MkdirAll(lyricDir, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Backends = []string{config.BackendLrcDB, config.BackendLocal}
	cfg.LyricDirs = []string{lyricDir}
	cfg.SaveDir = filepath.Join(dir, "saved")
	cfg.DatabasePath = filepath.Join(dir, "lyrics.db")
	cfg.StatePath = filepath.Join(dir, "state.yaml")
	return cfg
}

func TestSetupLocalLookupIsRemembered(t *testing.T) {
	cfg := testConfig(t)
	lrcPath := filepath.Join(cfg.LyricDirs[0], "Band - Song.lrc")
	if err := os.WriteFile(lrcPath, []byte("[00:01.00]hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Setup(cfg, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	defer s.Close()

	if got := s.Dispatcher.Order(); !reflect.DeepEqual(got, []string{"lrcdb", "local"}) {
		t.Errorf("Order() = %v", got)
	}

	ctx := context.Background()
	out := s.Engine.TrackChanged(ctx, event("Band", "Song"))
	if out.State != StateFound || out.Candidate.Source != "local" {
		t.Fatalf("first lookup: %s from %q (%v)", out.State, out.Candidate.Source, out.Err)
	}

	a, err := s.Store.Lookup(ctx, out.Track.Key())
	if err != nil || a == nil || a.URI != out.Candidate.URI {
		t.Fatalf("assignment not stored: %+v, %v", a, err)
	}

	// Local files are used in place, not copied.
	if _, err := os.Stat(cfg.SaveDir); !os.IsNotExist(err) {
		t.Errorf("save dir should not be created for local lyrics, stat err %v", err)
	}

	// The remembered assignment shares the file's key and is merged with it.
	out = s.Engine.TrackChanged(ctx, event("Band", "Song"))
	if out.State != StateFound || len(out.Ranked) != 1 {
		t.Errorf("second lookup: %s with %d candidates", out.State, len(out.Ranked))
	}
}

func TestSetupRejectPersistsToStateFile(t *testing.T) {
	cfg := testConfig(t)

	s, err := Setup(cfg, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if _, err := s.Engine.Reject("lrclib://42"); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	s.Close()

	s, err = Setup(cfg, logger.New(false), Hooks{})
	if err != nil {
		t.Fatalf("second Setup error: %v", err)
	}
	defer s.Close()
	if got := s.Policy.Ignored(); !reflect.DeepEqual(got, []string{"lrclib://42"}) {
		t.Errorf("Ignored() = %v", got)
	}
}

func TestSetupInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backends = nil
	if _, err := Setup(cfg, logger.New(false), Hooks{}); err == nil {
		t.Error("expected validation error")
	}
}
