package framesource

import (
	"context"
	"errors"

	"formcoach/internal/pose"
)

var (
	// ErrNoFrames is returned when a source has nothing to replay.
	ErrNoFrames = errors.New("no frames available")
)

// Source yields the most recent frame. Current returns false when no frame
// is ready yet or the source has ended.
type Source interface {
	Current() (pose.Frame, bool)
	Close() error
}

// Provider acquires a Source for one session.
type Provider interface {
	Acquire(ctx context.Context) (Source, error)
}
