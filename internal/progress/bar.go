package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Bar shows how many lyric sources have replied to the current lookup.
type Bar struct {
	out       io.Writer
	total     int
	current   int
	last      string
	mu        sync.Mutex
	startTime time.Time
	done      bool
}

// New creates a bar for total sources writing to out.
func New(out io.Writer, total int) *Bar {
	return &Bar{
		out:       out,
		total:     total,
		startTime: time.Now(),
	}
}

// Reply records that source has replied and redraws the bar.
func (b *Bar) Reply(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current < b.total {
		b.current++
	}
	b.last = source
	b.render()
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.render()
	fmt.Fprintln(b.out)
	b.done = true
}

// render displays the progress bar
func (b *Bar) render() {
	if b.done || b.total <= 0 {
		return
	}

	filled := barWidth * b.current / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r[%s] %d/%d sources - %s - last: %-10s",
		bar,
		b.current,
		b.total,
		formatDuration(time.Since(b.startTime)),
		b.last,
	)
}

// formatDuration formats a lookup duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
