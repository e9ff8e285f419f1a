// Package sessionstats aggregates feedback over one session.
package sessionstats

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"formcoach/internal/rules"
)

// Snapshot is the aggregate view of a session.
type Snapshot struct {
	ID                 string    `json:"id"`
	StartTimestamp     time.Time `json:"start_timestamp"`
	DurationSeconds    float64   `json:"duration_seconds"`
	FeedbackCount      int       `json:"feedback_count"`
	GoodFormPercentage float64   `json:"good_form_percentage"`
	GoodCount          int       `json:"good_count"`
	WarningCount       int       `json:"warning_count"`
	ErrorCount         int       `json:"error_count"`
	MeanConfidence     float64   `json:"mean_confidence"`
	Backend            string    `json:"backend,omitempty"`
	Finalized          bool      `json:"finalized"`
}

// Aggregator collects feedback between Start and Stop. Appends outside a
// running session are ignored. After Stop the snapshot stays frozen until
// the next Start.
type Aggregator struct {
	now func() time.Time

	mu       sync.Mutex
	running  bool
	snapshot Snapshot
	previous Snapshot
	history  []rules.Feedback
}

// New returns an aggregator using clock, or time.Now when nil.
func New(clock func() time.Time) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{now: clock}
}

// Start clears history and opens a new session.
func (a *Aggregator) Start(backendID string) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
	a.history = nil
	a.previous = a.snapshot
	a.snapshot = Snapshot{
		ID:             uuid.NewString(),
		StartTimestamp: a.now(),
		Backend:        backendID,
	}
	return a.snapshot
}

// Append records one feedback result.
func (a *Aggregator) Append(fb rules.Feedback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.history = append(a.history, fb)
}

// Stop finalizes the session. Calling Stop again returns the frozen snapshot.
func (a *Aggregator) Stop() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return a.snapshot
	}
	a.running = false
	a.snapshot = a.compute(a.now())
	a.snapshot.Finalized = true
	return a.snapshot
}

// Discard abandons the open session and restores the snapshot frozen by the
// previous Stop. It is a no-op when no session is open.
func (a *Aggregator) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.history = nil
	a.snapshot = a.previous
}

// Running reports whether a session is open.
func (a *Aggregator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Snapshot returns live figures while running and the frozen figures after
// Stop.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return a.snapshot
	}
	return a.compute(a.now())
}

// History returns a copy of the feedback recorded this session.
func (a *Aggregator) History() []rules.Feedback {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]rules.Feedback(nil), a.history...)
}

func (a *Aggregator) compute(now time.Time) Snapshot {
	s := a.snapshot
	s.DurationSeconds = now.Sub(s.StartTimestamp).Seconds()
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	s.FeedbackCount = len(a.history)
	s.GoodCount, s.WarningCount, s.ErrorCount = 0, 0, 0
	s.GoodFormPercentage, s.MeanConfidence = 0, 0
	if s.FeedbackCount == 0 {
		return s
	}

	confidences := make([]float64, 0, len(a.history))
	for _, fb := range a.history {
		switch fb.Severity {
		case rules.Good:
			s.GoodCount++
		case rules.Warning:
			s.WarningCount++
		case rules.Error:
			s.ErrorCount++
		}
		confidences = append(confidences, fb.Confidence)
	}
	s.GoodFormPercentage = 100 * float64(s.GoodCount) / float64(s.FeedbackCount)
	s.MeanConfidence = stat.Mean(confidences, nil)
	return s
}
