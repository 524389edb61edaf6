package lrclib

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lyricfinder/internal/lyrics"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantURIs  []string
		wantScore []float64
		wantErr   bool
	}{
		{
			name:   "synced and plain",
			status: http.StatusOK,
			body: `[
				{"id": 1, "trackName": "Let It Be", "artistName": "The Beatles", "syncedLyrics": "[00:12.00]When I find", "plainLyrics": "When I find"},
				{"id": 2, "trackName": "Let It Be", "artistName": "Cover Band", "plainLyrics": "When I find"},
				{"id": 3, "trackName": "Let It Be", "artistName": "Quiet", "instrumental": true},
				{"id": 4, "trackName": "Let It Be", "artistName": "Empty"}
			]`,
			wantURIs:  []string{"lrclib://1", "lrclib://2"},
			wantScore: []float64{1.0, 0.5},
		},
		{
			name:   "no results",
			status: http.StatusOK,
			body:   `[]`,
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"code":404}`,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `internal server error`,
			wantErr: true,
		},
		{
			name:    "bad json",
			status:  http.StatusOK,
			body:    `{"not": "an array"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("User-Agent") != "lyricfinder/1.0" {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL)
			got, err := c.Search(context.Background(), lyrics.Query{Artist: "The Beatles", Title: "Let It Be"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.wantURIs) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.wantURIs))
			}
			for i, c := range got {
				if c.URI != tt.wantURIs[i] || c.Score != tt.wantScore[i] || c.Source != Name {
					t.Errorf("candidate %d = %+v", i, c)
				}
			}
		})
	}
}

func TestSearchQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("track_name"); got != "Let It Be" {
			t.Errorf("track_name = %q, want %q", got, "Let It Be")
		}
		if got := q.Get("album_name"); got != "Let It Be" {
			t.Errorf("album_name = %q, want %q", got, "Let It Be")
		}
		if q.Has("artist_name") {
			t.Errorf("artist_name should be omitted when unknown, got %q", q.Get("artist_name"))
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Search(context.Background(), lyrics.Query{Title: "Let It Be", Album: "Let It Be"})
}

func TestSearchWithoutTitle(t *testing.T) {
	c := New("http://127.0.0.1:0")
	got, err := c.Search(context.Background(), lyrics.Query{Artist: "Only Artist"})
	if err != nil || got != nil {
		t.Errorf("expected no request and no results, got %v %v", got, err)
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get/1":
			w.Write([]byte(`{"id": 1, "syncedLyrics": "[00:01.00]synced", "plainLyrics": "plain"}`))
		case "/get/2":
			w.Write([]byte(`{"id": 2, "plainLyrics": "plain only"}`))
		case "/get/3":
			w.Write([]byte(`{"id": 3, "instrumental": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	data, err := c.Download(ctx, lyrics.Candidate{URI: "lrclib://1"})
	if err != nil || string(data) != "[00:01.00]synced" {
		t.Errorf("synced: got %q, %v", data, err)
	}
	data, err = c.Download(ctx, lyrics.Candidate{URI: "lrclib://2"})
	if err != nil || string(data) != "plain only" {
		t.Errorf("plain: got %q, %v", data, err)
	}
	if _, err := c.Download(ctx, lyrics.Candidate{URI: "lrclib://3"}); !errors.Is(err, ErrNoLyrics) {
		t.Errorf("instrumental: expected ErrNoLyrics, got %v", err)
	}
	if _, err := c.Download(ctx, lyrics.Candidate{URI: "lrclib://99"}); err == nil {
		t.Error("missing record: expected error")
	}
	if _, err := c.Download(ctx, lyrics.Candidate{URI: "netease://1"}); err == nil {
		t.Error("foreign URI: expected error")
	}
}

func TestRetryOnTransientError(t *testing.T) {
	// A closed server yields connection refused, a net.Error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url)
	c.retryDelay = time.Millisecond

	start := time.Now()
	_, err := c.Search(context.Background(), lyrics.Query{Title: "x"})
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if !isTransient(err) {
		t.Errorf("expected a transient error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("retry took too long")
	}
}
