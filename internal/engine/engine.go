package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"formcoach/internal/access"
	"formcoach/internal/analysis"
	"formcoach/internal/classify"
	"formcoach/internal/estimator"
	"formcoach/internal/framesource"
	"formcoach/internal/logging"
	"formcoach/internal/notifications"
	"formcoach/internal/rules"
	"formcoach/internal/sessionstats"
)

// ErrBusy is returned when an operation needs an idle engine.
var ErrBusy = errors.New("engine: session in progress")

// Options wires an Engine. Backends, Source, and Gate are required.
type Options struct {
	Backends         Backends
	PreferredBackend string
	Source           framesource.Provider
	Gate             Gate
	Pipeline         *analysis.Pipeline
	Stats            *sessionstats.Aggregator
	Refresher        Refresher
	Renderer         Renderer
	Sink             notifications.Sink
	Recorder         Recorder
	// SessionSummary pushes a notice with the session figures on Stop.
	SessionSummary bool
	Logger         *slog.Logger
	Now            func() time.Time
}

// Engine owns at most one running session.
type Engine struct {
	backends  Backends
	preferred string
	source    framesource.Provider
	gate      Gate
	pipeline  *analysis.Pipeline
	stats     *sessionstats.Aggregator
	refresher Refresher
	renderer  Renderer
	sink      notifications.Sink
	recorder  Recorder
	summary   bool
	estimator *estimator.Estimator
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	state       State
	abort       bool
	generation  uint64
	cancel      context.CancelFunc
	active      framesource.Source
	done        chan struct{}
	sessionID   string
	current     Update
	hasCurrent  bool
	autoGuess   classify.Label
	message     string
	subscribers map[int]*Subscription
	nextSubID   int
}

// New builds an idle engine.
func New(opts Options) (*Engine, error) {
	if opts.Backends == nil {
		return nil, fmt.Errorf("engine: backends required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("engine: frame source required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("engine: access gate required")
	}
	if opts.Pipeline == nil {
		opts.Pipeline = analysis.New(analysis.Options{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Stats == nil {
		opts.Stats = sessionstats.New(opts.Now)
	}
	if opts.Refresher == nil {
		opts.Refresher = NewTicker(0)
	}
	if opts.Renderer == nil {
		opts.Renderer = nopRenderer{}
	}
	if opts.Sink == nil {
		opts.Sink = notifications.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	logger := logging.NewComponentLogger(opts.Logger, "engine")

	return &Engine{
		backends:    opts.Backends,
		preferred:   opts.PreferredBackend,
		source:      opts.Source,
		gate:        opts.Gate,
		pipeline:    opts.Pipeline,
		stats:       opts.Stats,
		refresher:   opts.Refresher,
		renderer:    opts.Renderer,
		sink:        opts.Sink,
		recorder:    opts.Recorder,
		summary:     opts.SessionSummary,
		estimator:   estimator.New(opts.Backends, opts.Logger),
		logger:      logger,
		now:         opts.Now,
		subscribers: make(map[int]*Subscription),
	}, nil
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentFeedback returns the latest verdict of the current or last session.
func (e *Engine) CurrentFeedback() (rules.Feedback, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current.Feedback, e.hasCurrent
}

// AutoGuess returns the classifier's latest unpinned guess.
func (e *Engine) AutoGuess() classify.Label {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoGuess
}

// SessionStats returns live figures while running, frozen ones after Stop.
func (e *Engine) SessionStats() sessionstats.Snapshot {
	return e.stats.Snapshot()
}

// AvailableBackends probes every backend; the fallback is always last.
func (e *Engine) AvailableBackends(ctx context.Context) []string {
	return e.backends.ProbeAvailability(ctx)
}

// ActiveBackend returns the id of the backend serving estimates.
func (e *Engine) ActiveBackend() string {
	return e.backends.ActiveID()
}

// Status reports the engine and backend state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	state, message := e.state, e.message
	e.mu.Unlock()
	return Status{
		State:            state,
		Backend:          e.backends.Status(),
		Message:          message,
		EstimateFailures: e.estimator.Failures(),
	}
}

// SelectBackend makes id the preferred backend and activates it, returning
// the id actually serving (the fallback when id fails). Switching is refused
// with ErrBusy unless the engine is idle.
func (e *Engine) SelectBackend(ctx context.Context, id string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle {
		return e.backends.ActiveID(), ErrBusy
	}
	e.preferred = id
	return e.backends.Select(ctx, id), nil
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Running && e.generation == gen
}

func decisionMessage(d access.Decision, limit int) string {
	if d == access.LimitReached {
		return fmt.Sprintf("Free trial used up (%d sessions). Sign in to keep training.", limit)
	}
	return ""
}
