package framesource

import (
	"context"
	"sync"
	"time"

	"formcoach/internal/pose"
)

// Blank provides imageless frames carrying only a size and sequence
// number. It pairs with the synthetic backend when no camera exists.
type Blank struct {
	Width  int
	Height int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Acquire never fails.
func (b Blank) Acquire(context.Context) (Source, error) {
	now := b.Now
	if now == nil {
		now = time.Now
	}
	return &blankSource{width: b.Width, height: b.Height, now: now}, nil
}

type blankSource struct {
	width, height int
	now           func() time.Time

	mu     sync.Mutex
	seq    uint64
	closed bool
}

// Current returns a new frame on every call.
func (s *blankSource) Current() (pose.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return pose.Frame{}, false
	}
	seq := s.seq
	s.seq++
	return pose.Frame{
		Seq:       seq,
		Width:     s.width,
		Height:    s.height,
		Timestamp: s.now(),
		Format:    "raw",
	}, true
}

func (s *blankSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
