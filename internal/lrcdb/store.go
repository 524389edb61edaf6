// Package lrcdb remembers which lyrics were used for which track.
//
// Assignments are stored in SQLite keyed by metadata.Track.Key. The Store
// doubles as a lyrics.Backend so a remembered assignment is offered again,
// with full confidence, the next time the track plays.
package lrcdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
)

const Name = "lrcdb"

// Assignment links a track to the lyrics chosen for it.
type Assignment struct {
	TrackKey  string
	Artist    string
	Title     string
	URI       string
	Source    string
	Payload   []byte
	UpdatedAt time.Time
}

// Store manages assignment persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Assign stores a, replacing any previous assignment for the same track.
func (s *Store) Assign(ctx context.Context, a Assignment) error {
	if a.TrackKey == "" || a.URI == "" {
		return fmt.Errorf("assignment needs a track key and a URI")
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	if a.Payload == nil {
		a.Payload = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (track_key, artist, title, uri, source, payload, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(track_key) DO UPDATE SET
            artist = excluded.artist,
            title = excluded.title,
            uri = excluded.uri,
            source = excluded.source,
            payload = excluded.payload,
            updated_at = excluded.updated_at`,
		a.TrackKey, a.Artist, a.Title, a.URI, a.Source, a.Payload,
		a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("assign %s: %w", a.TrackKey, err)
	}
	return nil
}

// Lookup returns the assignment for a track key, or nil if there is none.
func (s *Store) Lookup(ctx context.Context, trackKey string) (*Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT track_key, artist, title, uri, source, payload, updated_at
         FROM assignments WHERE track_key = ?`, trackKey)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", trackKey, err)
	}
	return a, nil
}

// Forget removes the assignment for a track key.
func (s *Store) Forget(ctx context.Context, trackKey string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM assignments WHERE track_key = ?", trackKey); err != nil {
		return fmt.Errorf("forget %s: %w", trackKey, err)
	}
	return nil
}

// List returns every assignment, most recent first.
func (s *Store) List(ctx context.Context) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_key, artist, title, uri, source, payload, updated_at
         FROM assignments ORDER BY updated_at DESC, track_key`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(sc scanner) (*Assignment, error) {
	var (
		a       Assignment
		updated string
	)
	if err := sc.Scan(&a.TrackKey, &a.Artist, &a.Title, &a.URI, &a.Source, &a.Payload, &updated); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		a.UpdatedAt = t
	}
	return &a, nil
}

// Record implements the pipeline's recorder. Lyrics that came from the
// store itself are not written back.
func (s *Store) Record(ctx context.Context, track metadata.Track, c lyrics.Candidate, payload []byte) error {
	if c.Source == Name {
		return nil
	}
	return s.Assign(ctx, Assignment{
		TrackKey: track.Key(),
		Artist:   track.Artist,
		Title:    track.Title,
		URI:      c.URI,
		Source:   c.Source,
		Payload:  payload,
	})
}

func (s *Store) Name() string { return Name }

// Search offers the stored assignment for the queried track.
func (s *Store) Search(ctx context.Context, q lyrics.Query) ([]lyrics.Candidate, error) {
	if q.Title == "" {
		return nil, nil
	}
	key := metadata.Track{Artist: q.Artist, Title: q.Title}.Key()
	a, err := s.Lookup(ctx, key)
	if err != nil || a == nil {
		return nil, err
	}
	return []lyrics.Candidate{{
		Source: Name,
		Title:  a.Title,
		Artist: a.Artist,
		URI:    a.URI,
		Score:  1.0,
	}}, nil
}

// Download returns the stored payload for a candidate URI.
func (s *Store) Download(ctx context.Context, c lyrics.Candidate) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM assignments WHERE uri = ? ORDER BY updated_at DESC LIMIT 1", c.URI,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no stored lyrics for %s", c.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("read stored lyrics: %w", err)
	}
	return payload, nil
}
