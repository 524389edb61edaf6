package web

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lyricfinder/internal/pipeline"
)

// Cycle is one track-changed lookup as seen by web clients.
type Cycle struct {
	ID          string
	Generation  uint64
	Outcome     pipeline.Outcome
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// CycleTracker records engine outcomes per cycle and fans them out to
// subscribers.
type CycleTracker struct {
	mu        sync.RWMutex
	cycles    map[uint64]*Cycle
	listeners []chan Cycle
}

const cycleRetention = 1 * time.Hour

func NewCycleTracker() *CycleTracker {
	return &CycleTracker{
		cycles: make(map[uint64]*Cycle),
	}
}

// StartCleanup starts a background goroutine that removes old finished
// cycles. Stops when ctx is cancelled.
func (ct *CycleTracker) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ct.cleanup()
			}
		}
	}()
}

func (ct *CycleTracker) cleanup() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	cutoff := time.Now().Add(-cycleRetention)
	for gen, c := range ct.cycles {
		if c.CompletedAt != nil && c.CompletedAt.Before(cutoff) {
			delete(ct.cycles, gen)
		}
	}
}

// Observe is the engine's OnState hook. The first outcome of a generation
// opens a new cycle.
func (ct *CycleTracker) Observe(out pipeline.Outcome) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	now := time.Now()
	c, ok := ct.cycles[out.Generation]
	if !ok {
		c = &Cycle{
			ID:         uuid.NewString(),
			Generation: out.Generation,
			CreatedAt:  now,
		}
		ct.cycles[out.Generation] = c
	}
	c.Outcome = out
	c.UpdatedAt = now

	switch out.State {
	case pipeline.StateFound, pipeline.StateNotFound, pipeline.StateError:
		if c.CompletedAt == nil {
			c.CompletedAt = &now
		}
	default:
		c.CompletedAt = nil
	}

	ct.notifyListeners(*c)
}

// Get returns a cycle by ID.
func (ct *CycleTracker) Get(id string) (Cycle, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	for _, c := range ct.cycles {
		if c.ID == id {
			return *c, true
		}
	}
	return Cycle{}, false
}

// ByGeneration returns the cycle for an engine generation.
func (ct *CycleTracker) ByGeneration(gen uint64) (Cycle, bool) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	c, ok := ct.cycles[gen]
	if !ok {
		return Cycle{}, false
	}
	return *c, true
}

// List returns all cycles, newest first.
func (ct *CycleTracker) List() []Cycle {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	out := make([]Cycle, 0, len(ct.cycles))
	for _, c := range ct.cycles {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation > out[j].Generation })
	return out
}

// Subscribe returns a channel receiving every cycle update.
func (ct *CycleTracker) Subscribe() <-chan Cycle {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ch := make(chan Cycle, 10)
	ct.listeners = append(ct.listeners, ch)
	return ch
}

// Unsubscribe removes a listener
func (ct *CycleTracker) Unsubscribe(ch <-chan Cycle) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	for i, listener := range ct.listeners {
		if listener == ch {
			ct.listeners = append(ct.listeners[:i], ct.listeners[i+1:]...)
			close(listener)
			break
		}
	}
}

// notifyListeners drops the update for a listener whose buffer is full.
func (ct *CycleTracker) notifyListeners(c Cycle) {
	for _, ch := range ct.listeners {
		select {
		case ch <- c:
		default:
		}
	}
}
