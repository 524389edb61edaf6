// Package policy decides what to do with a ranked candidate list and owns
// the persisted list of rejected candidates.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lyricfinder/internal/logger"
	"lyricfinder/internal/lrc"
	"lyricfinder/internal/lyrics"
)

// Kind is the decision taken for one ranked list.
type Kind int

const (
	NoAction Kind = iota
	AutoFetch
	PresentChoices
)

func (k Kind) String() string {
	switch k {
	case AutoFetch:
		return "auto-fetch"
	case PresentChoices:
		return "present-choices"
	default:
		return "no-action"
	}
}

// DownloadAction is the result of Decide. Candidate is set for AutoFetch,
// Choices for PresentChoices.
type DownloadAction struct {
	Kind      Kind
	Candidate lyrics.Candidate
	Choices   lyrics.Ranked
}

// Decide maps a ranked list onto an action. An empty list is NoAction.
func Decide(ranked lyrics.Ranked, autoBest bool) DownloadAction {
	best, ok := ranked.Best()
	switch {
	case !ok:
		return DownloadAction{Kind: NoAction}
	case autoBest:
		return DownloadAction{Kind: AutoFetch, Candidate: best}
	default:
		return DownloadAction{Kind: PresentChoices, Choices: ranked}
	}
}

// FetchFailedError reports a download of a chosen candidate that failed or
// returned something that is not lyrics.
type FetchFailedError struct {
	Candidate lyrics.Candidate
	Err       error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Candidate.URI, e.Candidate.Source, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// Fetcher downloads a candidate's payload. *lyrics.Dispatcher implements it.
type Fetcher interface {
	Download(ctx context.Context, c lyrics.Candidate) ([]byte, error)
}

// Resolution is what Fetch settled on. Action is the last decision taken;
// for AutoFetch, Candidate and Payload hold the successful download.
type Resolution struct {
	Action    DownloadAction
	Candidate lyrics.Candidate
	Payload   []byte
	Failures  []*FetchFailedError
}

// Fetched reports whether a payload was downloaded.
func (r Resolution) Fetched() bool { return r.Payload != nil }

// Policy owns the ignore set. Reject is its only writer.
type Policy struct {
	mu       sync.RWMutex
	ignored  *IgnoreSet
	store    IgnoreStore
	autoBest bool
	logger   *logger.Logger
}

// New loads the ignore list from store. A load failure is logged and the
// policy starts with an empty list.
func New(store IgnoreStore, autoBest bool, log *logger.Logger) *Policy {
	p := &Policy{
		store:    store,
		autoBest: autoBest,
		logger:   log.With("policy"),
	}

	var keys []string
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			p.logger.Warn("Failed to load ignore list: %v", err)
		} else {
			keys = loaded
		}
	}
	p.ignored = NewIgnoreSet(keys...)
	p.logger.Debug("loaded %d ignored candidates", p.ignored.Len())
	return p
}

// AutoBest reports whether the best candidate is fetched without asking.
func (p *Policy) AutoBest() bool { return p.autoBest }

// Snapshot returns a read-only copy of the ignore set for one selection.
func (p *Policy) Snapshot() lyrics.KeySet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ignored.Snapshot()
}

// Ignored returns the rejected keys in the order they were added.
func (p *Policy) Ignored() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ignored.Keys()
}

// Decide applies the configured auto-download setting.
func (p *Policy) Decide(ranked lyrics.Ranked) DownloadAction {
	return Decide(ranked, p.autoBest)
}

// Reject adds key to the ignore set and persists the whole set. Rejecting
// a key twice is a no-op.
func (p *Policy) Reject(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ignored.Add(key) {
		return nil
	}
	p.logger.Info("Ignoring %s", lyrics.Key(key))
	if p.store == nil {
		return nil
	}
	if err := p.store.Save(p.ignored.Keys()); err != nil {
		return fmt.Errorf("failed to save ignore list: %w", err)
	}
	return nil
}

// Fetch decides on ranked and, while the decision is AutoFetch, downloads
// the chosen candidate. A failed download excludes that candidate for this
// call only and the remaining list is decided again. The ignore set is
// never touched.
func (p *Policy) Fetch(ctx context.Context, ranked lyrics.Ranked, f Fetcher) Resolution {
	excluded := lyrics.NewKeySet()
	var res Resolution

	for {
		res.Action = p.Decide(ranked.Without(excluded))
		if res.Action.Kind != AutoFetch {
			return res
		}
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, &FetchFailedError{Candidate: res.Action.Candidate, Err: err})
			return res
		}

		c := res.Action.Candidate
		payload, err := FetchOne(ctx, f, c)
		if err != nil {
			var ffe *FetchFailedError
			if !errors.As(err, &ffe) {
				ffe = &FetchFailedError{Candidate: c, Err: err}
			}
			p.logger.Warn("%v", ffe)
			res.Failures = append(res.Failures, ffe)
			excluded.Add(c.Key())
			continue
		}
		res.Candidate = c
		res.Payload = payload
		return res
	}
}

// FetchOne downloads a single candidate and validates the payload. Any
// error returned is a *FetchFailedError.
func FetchOne(ctx context.Context, f Fetcher, c lyrics.Candidate) ([]byte, error) {
	payload, err := f.Download(ctx, c)
	if err != nil {
		return nil, &FetchFailedError{Candidate: c, Err: err}
	}
	if err := lrc.Validate(payload); err != nil {
		return nil, &FetchFailedError{Candidate: c, Err: err}
	}
	return payload, nil
}
