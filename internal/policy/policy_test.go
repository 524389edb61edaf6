package policy

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"lyricfinder/internal/logger"
	"lyricfinder/internal/lrc"
	"lyricfinder/internal/lyrics"
)

type mockFetcher struct {
	payloads map[string][]byte
	errs     map[string]error
	calls    []string
}

func (m *mockFetcher) Download(_ context.Context, c lyrics.Candidate) ([]byte, error) {
	m.calls = append(m.calls, c.URI)
	if err, ok := m.errs[c.URI]; ok {
		return nil, err
	}
	return m.payloads[c.URI], nil
}

func ranked(uris ...string) lyrics.Ranked {
	r := make(lyrics.Ranked, len(uris))
	for i, u := range uris {
		r[i] = lyrics.Candidate{Source: "test", URI: u}
	}
	return r
}

func TestDecide(t *testing.T) {
	r := ranked("a://1", "a://2")

	tests := []struct {
		name     string
		ranked   lyrics.Ranked
		autoBest bool
		want     Kind
	}{
		{"empty", nil, true, NoAction},
		{"empty manual", lyrics.Ranked{}, false, NoAction},
		{"auto", r, true, AutoFetch},
		{"manual", r, false, PresentChoices},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.ranked, tt.autoBest)
			if got.Kind != tt.want {
				t.Fatalf("Kind = %s, want %s", got.Kind, tt.want)
			}
			switch got.Kind {
			case AutoFetch:
				if got.Candidate.URI != "a://1" {
					t.Errorf("expected the top candidate, got %s", got.Candidate.URI)
				}
			case PresentChoices:
				if len(got.Choices) != 2 {
					t.Errorf("expected all candidates as choices, got %d", len(got.Choices))
				}
			}
		})
	}
}

func TestRejectPersists(t *testing.T) {
	store := &MemoryStore{Keys: []string{"/lyrics/old.lrc"}}
	p := New(store, true, logger.New(false))

	if err := p.Reject("file:///lyrics/new.lrc"); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if err := p.Reject("/lyrics/new.lrc"); err != nil {
		t.Fatalf("second Reject error: %v", err)
	}

	want := []string{"/lyrics/old.lrc", "/lyrics/new.lrc"}
	if !reflect.DeepEqual(store.Keys, want) {
		t.Errorf("persisted %v, want %v", store.Keys, want)
	}
	if !p.Snapshot().Contains("/lyrics/new.lrc") {
		t.Error("snapshot missing rejected key")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	p := New(&MemoryStore{}, true, logger.New(false))
	snap := p.Snapshot()
	if err := p.Reject("x://1"); err != nil {
		t.Fatal(err)
	}
	if snap.Contains("x://1") {
		t.Error("snapshot changed after Reject")
	}
}

func TestRejectSaveError(t *testing.T) {
	store := &MemoryStore{}
	p := New(store, true, logger.New(false))
	store.Err = errors.New("disk full")

	if err := p.Reject("x://1"); err == nil {
		t.Error("expected save error")
	}
}

func TestNewWithFailingStore(t *testing.T) {
	p := New(&MemoryStore{Err: errors.New("corrupt")}, true, logger.New(false))
	if len(p.Ignored()) != 0 {
		t.Errorf("expected empty ignore set, got %v", p.Ignored())
	}
}

func TestFetchFallsBackWithoutTouchingIgnoreSet(t *testing.T) {
	store := &MemoryStore{}
	p := New(store, true, logger.New(false))
	f := &mockFetcher{
		payloads: map[string][]byte{"a://2": []byte("[00:01.00]ok")},
		errs:     map[string]error{"a://1": errors.New("503")},
	}

	res := p.Fetch(context.Background(), ranked("a://1", "a://2", "a://3"), f)

	if !res.Fetched() || res.Candidate.URI != "a://2" {
		t.Fatalf("expected fallback to a://2, got %+v", res)
	}
	if len(res.Failures) != 1 || res.Failures[0].Candidate.URI != "a://1" {
		t.Errorf("unexpected failures %v", res.Failures)
	}
	if !reflect.DeepEqual(f.calls, []string{"a://1", "a://2"}) {
		t.Errorf("unexpected download order %v", f.calls)
	}
	if len(p.Ignored()) != 0 || len(store.Keys) != 0 {
		t.Error("fetch failures must not reach the ignore set")
	}
}

func TestFetchInvalidPayloadIsFailure(t *testing.T) {
	p := New(nil, true, logger.New(false))
	f := &mockFetcher{payloads: map[string][]byte{
		"a://1": []byte("   "),
		"a://2": []byte("[99:99.99]bad"),
	}}

	res := p.Fetch(context.Background(), ranked("a://1", "a://2"), f)
	if res.Fetched() {
		t.Fatal("invalid payloads must not be accepted")
	}
	if res.Action.Kind != NoAction {
		t.Errorf("expected NoAction after exhausting candidates, got %s", res.Action.Kind)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(res.Failures))
	}
	if !errors.Is(res.Failures[0], lrc.ErrEmpty) || !errors.Is(res.Failures[1], lrc.ErrMalformed) {
		t.Errorf("unexpected failure causes: %v, %v", res.Failures[0], res.Failures[1])
	}
}

func TestFetchManualPresentsChoices(t *testing.T) {
	p := New(nil, false, logger.New(false))
	f := &mockFetcher{}

	res := p.Fetch(context.Background(), ranked("a://1"), f)
	if res.Action.Kind != PresentChoices || res.Fetched() {
		t.Errorf("expected choices without download, got %+v", res)
	}
	if len(f.calls) != 0 {
		t.Errorf("nothing should be downloaded, got %v", f.calls)
	}
}

func TestFetchCancelled(t *testing.T) {
	p := New(nil, true, logger.New(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Fetch(ctx, ranked("a://1"), &mockFetcher{})
	if res.Fetched() || len(res.Failures) != 1 || !errors.Is(res.Failures[0], context.Canceled) {
		t.Errorf("unexpected resolution %+v", res)
	}
}

func TestIgnoreSet(t *testing.T) {
	s := NewIgnoreSet("b://1", "a://1", "b://1", "")
	if !reflect.DeepEqual(s.Keys(), []string{"b://1", "a://1"}) {
		t.Errorf("Keys() = %v", s.Keys())
	}
	if s.Add("A://1") {
		t.Error("Add should report duplicates by key")
	}

	var nilSet *IgnoreSet
	if nilSet.Contains("x") || nilSet.Len() != 0 || nilSet.Keys() != nil {
		t.Error("nil set should behave as empty")
	}
}
