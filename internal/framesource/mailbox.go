package framesource

import (
	"sync"

	"formcoach/internal/pose"
)

// MailboxStats counts frames through a mailbox.
type MailboxStats struct {
	Published uint64
	Consumed  uint64
	// Dropped counts frames overwritten before anyone read them.
	Dropped uint64
}

// Mailbox holds the latest published frame. Publish never blocks.
type Mailbox struct {
	mu     sync.Mutex
	frame  pose.Frame
	has    bool
	fresh    bool
	finished bool
	closed   bool
	stats    MailboxStats
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish replaces the held frame. Returns false once the mailbox is
// finished or closed.
func (m *Mailbox) Publish(frame pose.Frame) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.finished {
		return false
	}
	if m.fresh {
		m.stats.Dropped++
	}
	m.frame = frame
	m.has = true
	m.fresh = true
	m.stats.Published++
	return true
}

// Current returns the latest frame. The same frame is returned again until
// a newer one is published. After Finish an unread frame is returned once
// and then Current reports false.
func (m *Mailbox) Current() (pose.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.has || (m.finished && !m.fresh) {
		return pose.Frame{}, false
	}
	if m.fresh {
		m.stats.Consumed++
		m.fresh = false
	}
	return m.frame, true
}

// Stats returns a copy of the counters.
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Finish marks the end of the stream. No more frames are accepted.
func (m *Mailbox) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
}

// Close drops the held frame and rejects further publishes.
func (m *Mailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.has = false
	m.frame = pose.Frame{}
	return nil
}
