package engine

import (
	"context"
	"sync"
	"time"
)

// Refresher paces the loop. Wait blocks until the next display refresh or
// until ctx ends.
type Refresher interface {
	Wait(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Wait(ctx context.Context) error { return f(ctx) }

// Ticker is a Refresher driven by a fixed interval. The underlying ticker
// starts on the first Wait; ticks missed while a cycle runs are coalesced.
type Ticker struct {
	interval time.Duration

	mu sync.Mutex
	t  *time.Ticker
}

// NewTicker returns a Ticker. Non-positive intervals tick at 30Hz.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Ticker{interval: interval}
}

func (t *Ticker) Wait(ctx context.Context) error {
	t.mu.Lock()
	if t.t == nil {
		t.t = time.NewTicker(t.interval)
	}
	c := t.t.C
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c:
		return nil
	}
}

// Stop releases the ticker. A later Wait restarts it.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
