package lrcdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "lyrics.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAssignLookupForget(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := Assignment{
		TrackKey: "queen/bohemian-rhapsody",
		Artist:   "Queen",
		Title:    "Bohemian Rhapsody",
		URI:      "lrclib://1",
		Source:   "lrclib",
		Payload:  []byte("[00:01.00]Is this the real life"),
	}
	if err := store.Assign(ctx, a); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	got, err := store.Lookup(ctx, a.TrackKey)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got == nil || got.URI != a.URI || string(got.Payload) != string(a.Payload) || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected assignment %#v", got)
	}

	a.URI = "netease://2"
	a.Source = "netease"
	if err := store.Assign(ctx, a); err != nil {
		t.Fatalf("re-Assign failed: %v", err)
	}
	got, _ = store.Lookup(ctx, a.TrackKey)
	if got.URI != "netease://2" {
		t.Errorf("assignment not replaced: %#v", got)
	}

	list, err := store.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %v, %v", list, err)
	}

	if err := store.Forget(ctx, a.TrackKey); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if got, err := store.Lookup(ctx, a.TrackKey); err != nil || got != nil {
		t.Errorf("expected no assignment after Forget, got %#v, %v", got, err)
	}
}

func TestAssignRequiresKeyAndURI(t *testing.T) {
	store := openStore(t)
	if err := store.Assign(context.Background(), Assignment{URI: "x://1"}); err == nil {
		t.Error("expected error without track key")
	}
	if err := store.Assign(context.Background(), Assignment{TrackKey: "a/b"}); err == nil {
		t.Error("expected error without URI")
	}
}

func TestRecordAndServeAsBackend(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	track := metadata.Track{Artist: "Queen", Title: "Bohemian Rhapsody"}
	cand := lyrics.Candidate{Source: "lrclib", URI: "lrclib://1"}

	if err := store.Record(ctx, track, cand, []byte("[00:01.00]x")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Search(ctx, lyrics.QueryFor(track))
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].URI != "lrclib://1" || got[0].Score != 1.0 || got[0].Source != Name {
		t.Fatalf("unexpected candidates %+v", got)
	}

	data, err := store.Download(ctx, got[0])
	if err != nil || string(data) != "[00:01.00]x" {
		t.Errorf("Download() = %q, %v", data, err)
	}

	// Lyrics served by the store are not recorded again.
	before, _ := store.Lookup(ctx, track.Key())
	time.Sleep(2 * time.Millisecond)
	if err := store.Record(ctx, track, got[0], []byte("other")); err != nil {
		t.Fatal(err)
	}
	after, _ := store.Lookup(ctx, track.Key())
	if !after.UpdatedAt.Equal(before.UpdatedAt) || string(after.Payload) != "[00:01.00]x" {
		t.Error("store-sourced lyrics were written back")
	}
}

func TestSearchUnknownArtist(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	track := metadata.Track{Artist: metadata.UnknownArtist, Title: "Intro"}

	if err := store.Record(ctx, track, lyrics.Candidate{Source: "local", URI: "/l/intro.lrc"}, []byte("x")); err != nil {
		t.Fatal(err)
	}
	got, err := store.Search(ctx, lyrics.QueryFor(track))
	if err != nil || len(got) != 1 {
		t.Errorf("expected stored candidate for unknown-artist track, got %v, %v", got, err)
	}
	if got, _ := store.Search(ctx, lyrics.Query{Title: "Outro"}); len(got) != 0 {
		t.Errorf("unexpected candidates %v", got)
	}
}

func TestDownloadMissing(t *testing.T) {
	store := openStore(t)
	if _, err := store.Download(context.Background(), lyrics.Candidate{URI: "x://1"}); err == nil {
		t.Error("expected error for unknown URI")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyrics.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Assign(context.Background(), Assignment{TrackKey: "a/b", URI: "x://1", Payload: []byte("p")}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()
	if got, err := store.Lookup(context.Background(), "a/b"); err != nil || got == nil {
		t.Errorf("assignment lost after reopen: %v, %v", got, err)
	}
}
