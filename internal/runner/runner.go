package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"formcoach/internal/access"
	"formcoach/internal/backend"
	"formcoach/internal/config"
	"formcoach/internal/engine"
	"formcoach/internal/logging"
	"formcoach/internal/notifications"
	"formcoach/internal/sessionstats"
	"formcoach/internal/store"
)

// ErrSourceBusy is returned when another process holds the frame source lock.
var ErrSourceBusy = errors.New("another formcoach session is already using this source")

// Options configures New.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer engine.Renderer
	// Sink receives notices in addition to ntfy and the log.
	Sink notifications.Sink
	// Exercise overrides the configured classification mode when set.
	Exercise string
	// Backend overrides the configured preferred backend when set.
	Backend string
}

// Result reports one finished Run.
type Result struct {
	Outcome  engine.StartOutcome
	Message  string
	Snapshot sessionstats.Snapshot
}

// Runner owns the engine and everything it depends on.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	gate     *access.Gate
	registry *backend.Registry
	ticker   *engine.Ticker
	sink     notifications.Sink
	engine   *engine.Engine

	lockPath string
	lock     *flock.Flock
}

// New opens the store and builds the engine.
func New(ctx context.Context, opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("runner requires config")
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	pipeline, err := BuildPipeline(cfg, opts.Exercise)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	gate, err := access.NewGate(ctx, st, cfg.Access.TrialLimit, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sink := notifications.Multi(
		notifications.NewSink(cfg, logger),
		notifications.LogSink{Logger: logging.NewComponentLogger(logger, "notices")},
		opts.Sink,
	)
	registry := BuildRegistry(cfg, sink, logger)
	ticker := engine.NewTicker(cfg.RefreshInterval())

	eng, err := engine.New(engine.Options{
		Backends:         registry,
		PreferredBackend: cfg.Backends.Preferred,
		Source:           BuildSource(cfg, logger),
		Gate:             gate,
		Pipeline:         pipeline,
		Refresher:        ticker,
		Renderer:         opts.Renderer,
		Sink:             sink,
		Recorder:         st,
		SessionSummary:   cfg.Notifications.SessionSummary,
		Logger:           logger,
	})
	if err != nil {
		_ = registry.Close()
		_ = st.Close()
		return nil, err
	}
	if opts.Backend != "" {
		if _, err := eng.SelectBackend(ctx, opts.Backend); err != nil {
			_ = registry.Close()
			_ = st.Close()
			return nil, fmt.Errorf("select backend %q: %w", opts.Backend, err)
		}
	}

	lockPath := cfg.LockPath(sourceName(cfg))
	return &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "runner"),
		store:    st,
		gate:     gate,
		registry: registry,
		ticker:   ticker,
		sink:     sink,
		engine:   eng,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

func sourceName(cfg *config.Config) string {
	if cfg.Source.Kind == config.SourceDirectory {
		return "directory-" + cfg.Source.FramesDir
	}
	return cfg.Source.Kind
}

// Engine exposes the engine for observers.
func (r *Runner) Engine() *engine.Engine { return r.engine }

// Gate exposes the trial gate.
func (r *Runner) Gate() *access.Gate { return r.gate }

// Store exposes the session store.
func (r *Runner) Store() *store.Store { return r.store }

// Registry exposes the backend registry.
func (r *Runner) Registry() *backend.Registry { return r.registry }

// LockPath returns the lock file guarding the frame source.
func (r *Runner) LockPath() string { return r.lockPath }

// Run starts a session, lets it run for duration or until ctx ends, and
// stops it. A non-positive duration runs until ctx ends.
func (r *Runner) Run(ctx context.Context, caller engine.Caller, duration time.Duration) (Result, error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire source lock: %w", err)
	}
	if !ok {
		return Result{}, ErrSourceBusy
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			logging.WarnWithContext(r.logger, "failed to release source lock", "source_lock",
				logging.String("lock", r.lockPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next session may report the source as busy"),
			)
		}
	}()

	outcome := r.engine.Start(ctx, caller)
	if outcome != engine.Started {
		return Result{Outcome: outcome, Message: r.engine.Status().Message}, nil
	}
	r.logger.Info("session running",
		logging.String("lock", r.lockPath),
		logging.Duration("duration", duration),
	)

	if duration > 0 {
		timer := time.NewTimer(duration)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	} else {
		<-ctx.Done()
	}

	snap := r.engine.Stop()
	return Result{Outcome: outcome, Snapshot: snap}, nil
}

// Close stops any running session and releases every resource.
func (r *Runner) Close() error {
	if r.engine.State() != engine.Idle {
		r.engine.Stop()
	}
	r.ticker.Stop()
	var errs []error
	if err := r.registry.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close backends: %w", err))
	}
	notifications.Flush(r.sink)
	if err := r.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
