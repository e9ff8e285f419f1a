// Package access gates anonymous sessions behind a persisted trial counter.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"formcoach/internal/logging"
)

// TrialKey is the counter key the gate reads and writes.
const TrialKey = "trial_sessions"

// DefaultLimit is the number of anonymous sessions allowed.
const DefaultLimit = 3

// CounterStore persists named non-negative counters. A missing key reads
// as zero.
type CounterStore interface {
	Get(ctx context.Context, key string) (int, error)
	Set(ctx context.Context, key string, value int) error
}

// Decision is the outcome of Check.
type Decision int

const (
	Allowed Decision = iota
	Bypassed
	LimitReached
)

func (d Decision) String() string {
	switch d {
	case Bypassed:
		return "bypassed"
	case LimitReached:
		return "limit_reached"
	default:
		return "allowed"
	}
}

// Gate enforces the trial limit. Authenticated callers bypass it entirely.
type Gate struct {
	store  CounterStore
	limit  int
	logger *slog.Logger

	mu    sync.Mutex
	count int
}

// NewGate reads the current counter from store. A non-positive limit
// selects DefaultLimit.
func NewGate(ctx context.Context, store CounterStore, limit int, logger *slog.Logger) (*Gate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	count, err := store.Get(ctx, TrialKey)
	if err != nil {
		return nil, fmt.Errorf("read trial counter: %w", err)
	}
	if count < 0 {
		count = 0
	}
	return &Gate{
		store:  store,
		limit:  limit,
		logger: logging.NewComponentLogger(logger, "access"),
		count:  count,
	}, nil
}

// Check decides whether a session may start. It never mutates the counter.
func (g *Gate) Check(authenticated bool) Decision {
	if authenticated {
		return Bypassed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.count >= g.limit {
		return LimitReached
	}
	return Allowed
}

// Commit consumes one trial session for anonymous callers. Call it only
// after the session's resources were acquired.
func (g *Gate) Commit(ctx context.Context, authenticated bool) error {
	if authenticated {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	next := g.count + 1
	if err := g.store.Set(ctx, TrialKey, next); err != nil {
		return fmt.Errorf("persist trial counter: %w", err)
	}
	g.count = next
	g.logger.Info("trial session consumed",
		logging.String(logging.FieldEventType, "trial_commit"),
		logging.Int("used", next),
		logging.Int("limit", g.limit),
	)
	return nil
}

// Reset clears the counter.
func (g *Gate) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.store.Set(ctx, TrialKey, 0); err != nil {
		return fmt.Errorf("reset trial counter: %w", err)
	}
	g.count = 0
	return nil
}

// Count returns the sessions used so far.
func (g *Gate) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Limit returns the configured limit.
func (g *Gate) Limit() int {
	return g.limit
}

// Remaining returns the anonymous sessions left.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if left := g.limit - g.count; left > 0 {
		return left
	}
	return 0
}
