package engine

// Subscription delivers the latest Update. A slow reader only ever sees the
// newest verdict; older ones are replaced.
type Subscription struct {
	C <-chan Update

	ch     chan Update
	id     int
	engine *Engine
}

// Subscribe registers a latest-only mailbox. Call Close when done.
func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextSubID++
	ch := make(chan Update, 1)
	sub := &Subscription{C: ch, ch: ch, id: e.nextSubID, engine: e}
	e.subscribers[sub.id] = sub
	return sub
}

// Close unregisters the subscription. The channel is not closed.
func (s *Subscription) Close() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	delete(s.engine.subscribers, s.id)
}

// offer replaces any unread update with u. Only the loop goroutine sends.
func (s *Subscription) offer(u Update) {
	select {
	case s.ch <- u:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- u:
	default:
	}
}
