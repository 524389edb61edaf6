package lyrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arunsworld/nursery"

	"lyricfinder/internal/logger"
	"lyricfinder/internal/metadata"
)

const defaultQueryTimeout = 10 * time.Second

// Dispatcher queries every configured backend concurrently and collects
// their replies. Backend order is the configuration order and doubles as
// the source priority used by Select.
type Dispatcher struct {
	backends []Backend
	byName   map[string]Backend
	timeout  time.Duration
	logger   *logger.Logger

	// OnReply, if set, is called once per backend as soon as it has
	// replied, failed or been abandoned.
	OnReply func(source string)
}

// NewDispatcher creates a Dispatcher. A non-positive timeout uses the default.
func NewDispatcher(backends []Backend, timeout time.Duration, log *logger.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	byName := make(map[string]Backend, len(backends))
	for _, b := range backends {
		byName[b.Name()] = b
	}
	return &Dispatcher{
		backends: backends,
		byName:   byName,
		timeout:  timeout,
		logger:   log.With("dispatch"),
	}
}

// Order returns backend names in priority order.
func (d *Dispatcher) Order() []string {
	names := make([]string, len(d.backends))
	for i, b := range d.backends {
		names[i] = b.Name()
	}
	return names
}

// Query sends the track to every backend and waits until all of them have
// replied or the timeout elapses. A backend still pending at the deadline
// is recorded with ErrTimeout; a failing backend never affects the others.
func (d *Dispatcher) Query(ctx context.Context, track metadata.Track) Results {
	results := make(Results, len(d.backends))
	if len(d.backends) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	q := QueryFor(track)
	slots := make([]SourceResult, len(d.backends))
	jobs := make([]nursery.ConcurrentJob, len(d.backends))
	for i, b := range d.backends {
		jobs[i] = d.queryJob(b, q, &slots[i])
	}

	// Jobs never report on the nursery error channel; failures stay per source.
	if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
		d.logger.Warn("dispatch: %v", err)
	}

	for i, b := range d.backends {
		results[b.Name()] = slots[i]
	}
	return results
}

func (d *Dispatcher) queryJob(b Backend, q Query, slot *SourceResult) nursery.ConcurrentJob {
	name := b.Name()
	return func(ctx context.Context, _ chan error) {
		defer func() {
			if d.OnReply != nil {
				d.OnReply(name)
			}
		}()

		done := make(chan SourceResult, 1)
		go func() {
			candidates, err := b.Search(ctx, q)
			done <- SourceResult{Candidates: candidates, Err: err}
		}()

		select {
		case res := <-done:
			if res.Err != nil {
				d.logger.Debug("%s failed: %v", name, res.Err)
				*slot = SourceResult{Err: &BackendError{Source: name, Err: classify(ctx, res.Err)}}
				return
			}
			candidates := make([]Candidate, len(res.Candidates))
			for i, c := range res.Candidates {
				c.Source = name
				c.Exact = false
				candidates[i] = c
			}
			d.logger.Debug("%s returned %d candidates", name, len(candidates))
			*slot = SourceResult{Candidates: candidates}
		case <-ctx.Done():
			d.logger.Debug("%s abandoned: %v", name, ctx.Err())
			*slot = SourceResult{Err: &BackendError{Source: name, Err: classify(ctx, ctx.Err())}}
		}
	}
}

// classify maps deadline expiry onto ErrTimeout and keeps everything else.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

// Download fetches a candidate's payload from the backend that produced it.
func (d *Dispatcher) Download(ctx context.Context, c Candidate) ([]byte, error) {
	b, ok := d.byName[c.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
	return b.Download(ctx, c)
}
