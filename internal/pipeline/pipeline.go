package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"lyricfinder/internal/logger"
	"lyricfinder/internal/lrc"
	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
	"lyricfinder/internal/policy"
	"lyricfinder/pkg/utils"
)

// State is the user-visible status of the current track.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateFound     State = "found"
	StateNotFound  State = "not found"
	StateChoices   State = "choices"
	StateError     State = "error fetching"
)

// Event is a "track changed" notification. Tags may be nil or partial.
type Event struct {
	Tags *metadata.RawTags
	Path string
}

// Outcome is published on every state change of a cycle.
type Outcome struct {
	Generation uint64
	State      State
	Track      metadata.Track
	Ranked     lyrics.Ranked
	Candidate  lyrics.Candidate
	Payload    []byte
	Lyrics     *lrc.Lyrics
	Failed     []string
	Err        error

	// Stale is set on the value returned by a cycle that was superseded
	// before it finished. Stale outcomes are never published.
	Stale bool
}

type Hooks struct {
	// OnState is called for every published outcome of the current cycle.
	// It must not call back into the Engine.
	OnState func(Outcome)
}

// Searcher queries lyric sources. *lyrics.Dispatcher implements it.
type Searcher interface {
	Order() []string
	Query(ctx context.Context, track metadata.Track) lyrics.Results
	Download(ctx context.Context, c lyrics.Candidate) ([]byte, error)
}

// Recorder remembers which lyrics were used for a track.
type Recorder interface {
	Record(ctx context.Context, track metadata.Track, c lyrics.Candidate, payload []byte) error
}

type Options struct {
	Recorder Recorder
	// SaveDir, if set, receives a copy of every lyric file downloaded from
	// a remote source.
	SaveDir string
	Hooks   Hooks
}

// Engine runs one lookup cycle per track change. A new track cancels the
// cycle in flight and anything it produces afterwards is dropped.
type Engine struct {
	search   Searcher
	policy   *policy.Policy
	recorder Recorder
	saveDir  string
	hooks    Hooks
	logger   *logger.Logger

	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	last   Outcome

	pubMu sync.Mutex
}

func New(search Searcher, pol *policy.Policy, log *logger.Logger, opts Options) *Engine {
	return &Engine{
		search:   search,
		policy:   pol,
		recorder: opts.Recorder,
		saveDir:  opts.SaveDir,
		hooks:    opts.Hooks,
		logger:   log.With("engine"),
		last:     Outcome{State: StateIdle},
	}
}

// Last returns the most recent published outcome.
func (e *Engine) Last() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// TrackChanged runs a full cycle: normalize, query, select, decide and
// fetch. It never returns an error; failures become states.
func (e *Engine) TrackChanged(ctx context.Context, ev Event) Outcome {
	gen := e.generation.Add(1)
	ctx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	e.mu.Unlock()
	defer e.finish(gen, cancel)

	track, err := metadata.Normalize(ev.Tags, ev.Path)
	if err != nil {
		e.logger.Debug("normalize failed: %v", err)
		return e.publish(Outcome{Generation: gen, State: StateNotFound, Err: err})
	}
	e.logger.Info("Looking up lyrics for %s", track)
	e.publish(Outcome{Generation: gen, State: StateSearching, Track: track})

	results := e.search.Query(ctx, track)
	if !e.current(gen) {
		return Outcome{Generation: gen, Track: track, Stale: true}
	}
	failed := results.Failed()
	sort.Strings(failed)
	for _, name := range failed {
		e.logger.Warn("%v", results[name].Err)
	}

	ranked := lyrics.Select(track, results, e.policy.Snapshot(), e.search.Order())
	e.logger.Debug("%d candidates after selection", len(ranked))

	res := e.policy.Fetch(ctx, ranked, e.search)
	if !e.current(gen) {
		return Outcome{Generation: gen, Track: track, Stale: true}
	}

	out := Outcome{Generation: gen, Track: track, Ranked: ranked, Failed: failed}
	switch {
	case res.Fetched():
		e.found(ctx, &out, res.Candidate, res.Payload)
	case res.Action.Kind == policy.PresentChoices:
		out.State = StateChoices
	case len(res.Failures) > 0:
		out.State = StateError
		out.Err = res.Failures[len(res.Failures)-1]
	default:
		out.State = StateNotFound
	}
	return e.publish(out)
}

// Choose downloads one candidate from the current ranking, regardless of
// the auto-download setting.
func (e *Engine) Choose(ctx context.Context, uri string) (Outcome, error) {
	last := e.Last()
	c, ok := last.Ranked.Find(uri)
	if !ok {
		return last, fmt.Errorf("candidate %q is not in the current ranking", uri)
	}

	out := last
	out.Err = nil
	payload, err := policy.FetchOne(ctx, e.search, c)
	if err != nil {
		e.logger.Warn("%v", err)
		out.State = StateError
		out.Err = err
		out.Candidate = c
	} else {
		e.found(ctx, &out, c, payload)
	}
	if !e.current(last.Generation) {
		out.Stale = true
		return out, nil
	}
	return e.publish(out), nil
}

// Reject adds key to the persisted ignore list and drops it from the
// current ranking. If the cycle was waiting on a choice, the shortened
// list is published again.
func (e *Engine) Reject(key string) (Outcome, error) {
	if err := e.policy.Reject(key); err != nil {
		return e.Last(), err
	}

	last := e.Last()
	if last.State != StateChoices {
		return last, nil
	}
	out := last
	out.Ranked = last.Ranked.Without(lyrics.NewKeySet(key))
	if len(out.Ranked) == 0 {
		out.State = StateNotFound
	}
	return e.publish(out), nil
}

func (e *Engine) found(ctx context.Context, out *Outcome, c lyrics.Candidate, payload []byte) {
	out.State = StateFound
	out.Candidate = c
	out.Payload = payload
	if parsed, err := lrc.Parse(payload); err == nil {
		out.Lyrics = parsed
	}
	e.logger.Info("Found lyrics for %s from %s", out.Track, c.Source)

	if e.recorder != nil {
		if err := e.recorder.Record(ctx, out.Track, c, payload); err != nil {
			e.logger.Warn("Failed to record lyrics for %s: %v", out.Track, err)
		}
	}

	if e.saveDir != "" && !filepath.IsAbs(c.Key()) {
		name := out.Track.Artist + " - " + out.Track.Title + ".lrc"
		path, err := utils.SaveLyrics(e.saveDir, name, payload)
		if err != nil {
			e.logger.Warn("Failed to save lyrics: %v", err)
		} else {
			e.logger.Debug("saved lyrics to %s", path)
		}
	}
}

func (e *Engine) current(gen uint64) bool {
	return e.generation.Load() == gen
}

// publish records and announces out if its cycle is still current.
func (e *Engine) publish(out Outcome) Outcome {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()

	if !e.current(out.Generation) {
		out.Stale = true
		return out
	}
	e.mu.Lock()
	e.last = out
	e.mu.Unlock()

	if e.hooks.OnState != nil {
		e.hooks.OnState(out)
	}
	return out
}

func (e *Engine) finish(gen uint64, cancel context.CancelFunc) {
	e.mu.Lock()
	if e.current(gen) {
		e.cancel = nil
	}
	e.mu.Unlock()
	cancel()
}

// Close cancels the cycle in flight, if any.
func (e *Engine) Close() {
	e.generation.Add(1)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
