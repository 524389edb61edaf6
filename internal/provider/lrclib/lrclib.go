// Package lrclib is a lyrics backend for the LRCLIB public API.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lyricfinder/internal/lyrics"
)

const (
	Name       = "lrclib"
	DefaultURL = "https://lrclib.net/api"
	scheme     = "lrclib://"
)

// ErrNoLyrics is returned when a record exists but carries no lyrics.
var ErrNoLyrics = errors.New("lrclib: record has no lyrics")

// Client is an LRCLIB API client that implements lyrics.Backend.
type Client struct {
	httpClient *http.Client
	apiURL     string
	retryDelay time.Duration
}

// New creates a client for apiURL, or for the public instance when empty.
func New(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     strings.TrimRight(apiURL, "/"),
		retryDelay: 2 * time.Second,
	}
}

func (c *Client) Name() string { return Name }

// Search lists records matching the query. Records with synced lyrics score
// 1.0, plain-only records 0.5; instrumental or empty records are skipped.
func (c *Client) Search(ctx context.Context, q lyrics.Query) ([]lyrics.Candidate, error) {
	if q.Title == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("track_name", q.Title)
	if q.Artist != "" {
		params.Set("artist_name", q.Artist)
	}
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}

	var records []record
	found, err := c.getJSON(ctx, c.apiURL+"/search?"+params.Encode(), &records)
	if err != nil || !found {
		return nil, err
	}

	var out []lyrics.Candidate
	for _, r := range records {
		score := r.score()
		if score == 0 {
			continue
		}
		out = append(out, lyrics.Candidate{
			Source: Name,
			Title:  r.TrackName,
			Artist: r.ArtistName,
			URI:    scheme + strconv.Itoa(r.ID),
			Score:  score,
		})
	}
	return out, nil
}

// Download fetches a record by ID and returns its synced lyrics, falling
// back to plain lyrics.
func (c *Client) Download(ctx context.Context, cand lyrics.Candidate) ([]byte, error) {
	id, ok := strings.CutPrefix(cand.URI, scheme)
	if !ok || id == "" {
		return nil, fmt.Errorf("not an lrclib candidate: %q", cand.URI)
	}

	var r record
	found, err := c.getJSON(ctx, c.apiURL+"/get/"+url.PathEscape(id), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("lrclib record %s not found", id)
	}
	switch {
	case r.SyncedLyrics != "":
		return []byte(r.SyncedLyrics), nil
	case r.PlainLyrics != "":
		return []byte(r.PlainLyrics), nil
	default:
		return nil, ErrNoLyrics
	}
}

// getJSON decodes a GET response into v. A 404 reports found=false without
// error. Retries once on transient network errors.
func (c *Client) getJSON(ctx context.Context, reqURL string, v any) (bool, error) {
	found, err := c.doGet(ctx, reqURL, v)
	if err == nil {
		return found, nil
	}

	// API errors (4xx, 5xx) would fail identically; only network errors are retried.
	if !isTransient(err) {
		return false, err
	}

	select {
	case <-ctx.Done():
		return false, err
	case <-time.After(c.retryDelay):
	}
	return c.doGet(ctx, reqURL, v)
}

func isTransient(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func (c *Client) doGet(ctx context.Context, reqURL string, v any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create lrclib request: %w", err)
	}
	req.Header.Set("User-Agent", "lyricfinder/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("failed to decode lrclib response: %w", err)
	}
	return true, nil
}

type record struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func (r record) score() float64 {
	switch {
	case r.Instrumental:
		return 0
	case r.SyncedLyrics != "":
		return 1.0
	case r.PlainLyrics != "":
		return 0.5
	default:
		return 0
	}
}
