package engine

import (
	"context"
	"time"

	"formcoach/internal/access"
	"formcoach/internal/backend"
	"formcoach/internal/classify"
	"formcoach/internal/pose"
	"formcoach/internal/rules"
	"formcoach/internal/sessionstats"
)

// State is the engine lifecycle.
type State int

const (
	Idle State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// StartOutcome reports how Start ended. Only Started means a session ran and
// a trial was consumed; a concurrent Stop may already have ended it.
type StartOutcome int

const (
	Started StartOutcome = iota
	LimitReached
	SourceUnavailable
	BackendUnavailable
	AlreadyRunning
	Cancelled
	// TrialUnavailable means the trial counter could not be persisted.
	TrialUnavailable
)

func (o StartOutcome) String() string {
	switch o {
	case Started:
		return "started"
	case LimitReached:
		return "limit_reached"
	case SourceUnavailable:
		return "source_unavailable"
	case BackendUnavailable:
		return "backend_unavailable"
	case AlreadyRunning:
		return "already_running"
	case TrialUnavailable:
		return "trial_unavailable"
	default:
		return "cancelled"
	}
}

// Caller describes who asked for a session.
type Caller struct {
	Authenticated bool
}

// Update is one published verdict.
type Update struct {
	SessionID string
	FrameSeq  uint64
	Feedback  rules.Feedback
	Label     classify.Label
	AutoGuess classify.Label
	Synthetic bool
	At        time.Time
}

// Status summarizes the engine for display.
type Status struct {
	State   State
	Backend backend.Status
	// Message explains why the last Start did not produce a session.
	Message string
	// EstimateFailures counts backend errors since the engine was built.
	EstimateFailures uint64
}

// Backends is the registry surface the engine needs. *backend.Registry
// satisfies it.
type Backends interface {
	Status() backend.Status
	Select(ctx context.Context, id string) string
	ProbeAvailability(ctx context.Context) []string
	ActiveID() string
	Estimate(ctx context.Context, frame pose.Frame) (backend.Output, error)
}

// Gate decides whether a caller may start a session. *access.Gate
// satisfies it.
type Gate interface {
	Check(authenticated bool) access.Decision
	Commit(ctx context.Context, authenticated bool) error
}

// Renderer draws verdicts over the live view.
type Renderer interface {
	Render(u Update)
}

// Recorder persists finished sessions.
type Recorder interface {
	SaveSession(ctx context.Context, snap sessionstats.Snapshot) error
}

type nopRenderer struct{}

func (nopRenderer) Render(Update) {}
