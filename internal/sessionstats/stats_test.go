package sessionstats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formcoach/internal/rules"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func TestEmptySessionReportsZero(t *testing.T) {
	clock := newClock()
	agg := New(clock.now)

	started := agg.Start("synthetic")
	_, err := uuid.Parse(started.ID)
	require.NoError(t, err)

	snap := agg.Stop()
	assert.Zero(t, snap.FeedbackCount)
	assert.Zero(t, snap.GoodFormPercentage)
	assert.InDelta(t, 0, snap.DurationSeconds, 1e-9)
	assert.True(t, snap.Finalized)
	assert.Equal(t, "synthetic", snap.Backend)
}

func TestAggregatesSeverities(t *testing.T) {
	clock := newClock()
	agg := New(clock.now)
	agg.Start("subprocess")

	agg.Append(rules.Feedback{Severity: rules.Good, Confidence: 0.9})
	agg.Append(rules.Feedback{Severity: rules.Warning, Confidence: 0.8})
	agg.Append(rules.Feedback{Severity: rules.Good, Confidence: 0.7})
	agg.Append(rules.Feedback{Severity: rules.Error, Confidence: 0.6})
	clock.advance(90 * time.Second)

	live := agg.Snapshot()
	assert.False(t, live.Finalized)
	assert.Equal(t, 4, live.FeedbackCount)

	snap := agg.Stop()
	assert.Equal(t, 4, snap.FeedbackCount)
	assert.Equal(t, 2, snap.GoodCount)
	assert.Equal(t, 1, snap.WarningCount)
	assert.Equal(t, 1, snap.ErrorCount)
	assert.InDelta(t, 50, snap.GoodFormPercentage, 1e-9)
	assert.InDelta(t, 0.75, snap.MeanConfidence, 1e-9)
	assert.InDelta(t, 90, snap.DurationSeconds, 1e-9)
}

func TestSnapshotFrozenAfterStop(t *testing.T) {
	clock := newClock()
	agg := New(clock.now)
	agg.Start("synthetic")
	agg.Append(rules.Feedback{Severity: rules.Good, Confidence: 0.9})
	clock.advance(10 * time.Second)
	first := agg.Stop()

	clock.advance(time.Hour)
	agg.Append(rules.Feedback{Severity: rules.Warning})
	assert.Equal(t, first, agg.Snapshot())
	assert.Equal(t, first, agg.Stop())
	assert.Len(t, agg.History(), 1)

	second := agg.Start("synthetic")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, agg.History())
}

func TestAppendBeforeStartIgnored(t *testing.T) {
	agg := New(nil)
	agg.Append(rules.Feedback{Severity: rules.Good})
	assert.Empty(t, agg.History())
	assert.False(t, agg.Running())
}

func TestDiscardRestoresPreviousSnapshot(t *testing.T) {
	clock := newClock()
	agg := New(clock.now)

	agg.Start("synthetic")
	agg.Append(rules.Feedback{Severity: rules.Good, Confidence: 0.9})
	clock.advance(2 * time.Second)
	frozen := agg.Stop()

	agg.Start("http")
	agg.Append(rules.Feedback{Severity: rules.Warning, Confidence: 0.8})
	agg.Discard()

	assert.False(t, agg.Running())
	assert.Equal(t, frozen, agg.Snapshot())
	assert.Empty(t, agg.History())

	// No open session: nothing to discard.
	agg.Discard()
	assert.Equal(t, frozen, agg.Snapshot())
}
