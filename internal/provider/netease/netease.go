// Package netease is a lyrics backend for the NetEase Cloud Music web API.
package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lyricfinder/internal/lyrics"
)

const (
	Name       = "netease"
	DefaultURL = "https://music.163.com/api"
	scheme     = "netease://"
	searchSize = 10
)

var ErrNoLyrics = errors.New("netease: song has no lyrics")

// Client is a NetEase API client that implements lyrics.Backend.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

func New(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     strings.TrimRight(apiURL, "/"),
	}
}

func (c *Client) Name() string { return Name }

// Search runs a song search. NetEase returns results by relevance, so the
// score decays with position: 1 - i/n.
func (c *Client) Search(ctx context.Context, q lyrics.Query) ([]lyrics.Candidate, error) {
	terms := strings.TrimSpace(strings.Join([]string{q.Artist, q.Title}, " "))
	if q.Title == "" || terms == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("s", terms)
	params.Set("type", "1")
	params.Set("limit", strconv.Itoa(searchSize))

	var resp searchResponse
	if err := c.get(ctx, "/search/get?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("netease search returned code %d", resp.Code)
	}

	songs := resp.Result.Songs
	out := make([]lyrics.Candidate, 0, len(songs))
	for i, s := range songs {
		out = append(out, lyrics.Candidate{
			Source: Name,
			Title:  s.Name,
			Artist: s.artistNames(),
			URI:    scheme + strconv.FormatInt(s.ID, 10),
			Score:  1 - float64(i)/float64(len(songs)),
		})
	}
	return out, nil
}

// Download fetches the LRC text for a song ID, preferring the original
// lyric over the translation.
func (c *Client) Download(ctx context.Context, cand lyrics.Candidate) ([]byte, error) {
	id, ok := strings.CutPrefix(cand.URI, scheme)
	if !ok || id == "" {
		return nil, fmt.Errorf("not a netease candidate: %q", cand.URI)
	}

	params := url.Values{}
	params.Set("id", id)
	params.Set("lv", "-1")

	var resp lyricResponse
	if err := c.get(ctx, "/song/lyric?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("netease lyric returned code %d", resp.Code)
	}
	if resp.NoLyric || resp.Uncollected {
		return nil, ErrNoLyrics
	}
	for _, text := range []string{resp.Lrc.Lyric, resp.Tlyric.Lyric} {
		if strings.TrimSpace(text) != "" {
			return []byte(text), nil
		}
	}
	return nil, ErrNoLyrics
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create netease request: %w", err)
	}
	req.Header.Set("User-Agent", "lyricfinder/1.0")
	req.Header.Set("Referer", "https://music.163.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("netease request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("netease returned %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode netease response: %w", err)
	}
	return nil
}

// NetEase API response types

type searchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs     []song `json:"songs"`
		SongCount int    `json:"songCount"`
	} `json:"result"`
}

type song struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Artists []artist `json:"artists"`
	Album   struct {
		Name string `json:"name"`
	} `json:"album"`
}

type artist struct {
	Name string `json:"name"`
}

func (s song) artistNames() string {
	names := make([]string, 0, len(s.Artists))
	for _, a := range s.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

type lyricResponse struct {
	Code        int  `json:"code"`
	NoLyric     bool `json:"nolyric"`
	Uncollected bool `json:"uncollected"`
	Lrc         struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
	Tlyric struct {
		Lyric string `json:"lyric"`
	} `json:"tlyric"`
}
