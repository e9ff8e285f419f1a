package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"formcoach/internal/logging"
	"formcoach/internal/notifications"
	"formcoach/internal/pose"
)

// Options configures a Registry.
type Options struct {
	Config Config
	Sink   notifications.Sink
	Logger *slog.Logger
}

// Registry selects and owns the active backend.
type Registry struct {
	fallback   Fallback
	candidates []Backend
	cfg        Config
	sink       notifications.Sink
	logger     *slog.Logger

	// selectMu serializes Select and Close so initialization runs outside mu.
	selectMu sync.Mutex

	mu          sync.RWMutex
	active      Backend
	onFallback  bool
	status      Status
	lastFailure string
	closed      bool
}

// NewRegistry builds a registry over candidates in preference order. The
// fallback is prepared immediately.
func NewRegistry(fallback Fallback, opts Options, candidates ...Backend) *Registry {
	if fallback == nil {
		panic("backend: registry requires a fallback")
	}
	sink := opts.Sink
	if sink == nil {
		sink = notifications.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	filtered := make([]Backend, 0, len(candidates))
	for _, c := range candidates {
		if c != nil && c.ID() != fallback.ID() {
			filtered = append(filtered, c)
		}
	}
	fallback.Prepare(opts.Config)
	return &Registry{
		fallback:   fallback,
		candidates: filtered,
		cfg:        opts.Config,
		sink:       sink,
		logger:     logging.NewComponentLogger(logger, "backend"),
		status:     Status{State: StateUninitialized},
	}
}

// Descriptor names a registered backend.
type Descriptor struct {
	ID          string
	DisplayName string
	Fallback    bool
}

// Registered lists every backend in preference order, fallback last.
func (r *Registry) Registered() []Descriptor {
	out := make([]Descriptor, 0, len(r.candidates)+1)
	for _, c := range r.candidates {
		out = append(out, Descriptor{ID: c.ID(), DisplayName: c.DisplayName()})
	}
	return append(out, Descriptor{ID: r.fallback.ID(), DisplayName: r.fallback.DisplayName(), Fallback: true})
}

// FallbackID returns the id of the fallback backend.
func (r *Registry) FallbackID() string {
	return r.fallback.ID()
}

// ProbeAvailability returns the ids of backends that can initialize, in
// preference order, with the fallback always last.
func (r *Registry) ProbeAvailability(ctx context.Context) []string {
	r.mu.RLock()
	active := r.active
	r.mu.RUnlock()

	var available []string
	for _, c := range r.candidates {
		if active != nil && c.ID() == active.ID() {
			available = append(available, c.ID())
			continue
		}
		if err := r.probe(ctx, c); err != nil {
			r.logger.Debug("backend unavailable",
				logging.String(logging.FieldBackend, c.ID()),
				logging.Error(err),
			)
			continue
		}
		available = append(available, c.ID())
	}
	return append(available, r.fallback.ID())
}

func (r *Registry) probe(ctx context.Context, b Backend) error {
	if p, ok := b.(Prober); ok {
		return p.Probe(ctx)
	}
	if err := b.Initialize(ctx, r.cfg); err != nil {
		return err
	}
	return b.Close()
}

// Select makes id the active backend and returns the id that ended up
// active. An unknown id or an initialization failure activates the
// fallback instead. An empty id selects the first candidate that
// initializes. After Close, Select returns "".
func (r *Registry) Select(ctx context.Context, id string) string {
	r.selectMu.Lock()
	defer r.selectMu.Unlock()

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ""
	}

	id = strings.TrimSpace(id)
	if id == "" {
		for _, c := range r.candidates {
			if err := r.activate(ctx, c); err == nil {
				return c.ID()
			}
		}
		return r.activateFallback()
	}
	if id == r.fallback.ID() {
		return r.activateFallback()
	}

	candidate := r.lookup(id)
	if candidate == nil {
		r.fail(id, fmt.Errorf("%w: %s", ErrUnknown, id))
		return r.activateFallback()
	}
	if err := r.activate(ctx, candidate); err != nil {
		return r.activateFallback()
	}
	return candidate.ID()
}

func (r *Registry) lookup(id string) Backend {
	for _, c := range r.candidates {
		if c.ID() == id {
			return c
		}
	}
	return nil
}

func (r *Registry) activate(ctx context.Context, b Backend) error {
	r.mu.Lock()
	if r.active != nil && r.active.ID() == b.ID() && r.status.Ready() {
		r.mu.Unlock()
		return nil
	}
	previous := r.active
	r.active = nil
	r.onFallback = false
	r.status = Status{State: StateInitializing, Backend: b.ID()}
	r.mu.Unlock()

	r.closeBackend(previous)

	if err := b.Initialize(ctx, r.cfg); err != nil {
		r.fail(b.ID(), err)
		return err
	}

	r.mu.Lock()
	r.active = b
	r.status = Status{State: StateReady, Backend: b.ID()}
	r.mu.Unlock()

	r.logger.Info("backend ready",
		logging.String(logging.FieldEventType, "backend_selected"),
		logging.String(logging.FieldBackend, b.ID()),
	)
	return nil
}

func (r *Registry) activateFallback() string {
	r.mu.Lock()
	previous := r.active
	r.active = nil
	r.onFallback = true
	r.status = Status{State: StateReady, Backend: r.fallback.ID()}
	r.mu.Unlock()

	r.closeBackend(previous)
	r.logger.Info("fallback backend active",
		logging.String(logging.FieldEventType, "backend_selected"),
		logging.String(logging.FieldBackend, r.fallback.ID()),
	)
	return r.fallback.ID()
}

func (r *Registry) fail(id string, err error) {
	reason := err.Error()
	r.mu.Lock()
	r.status = Status{State: StateFailed, Backend: id, Reason: reason}
	r.lastFailure = fmt.Sprintf("%s: %s", id, reason)
	r.mu.Unlock()

	logging.WarnWithContext(r.logger, "backend initialization failed", "backend_init_failed",
		logging.String(logging.FieldBackend, id),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the backend configuration or run formcoach doctor"),
		logging.String(logging.FieldImpact, "falling back to "+r.fallback.ID()),
	)
	r.sink.Push(fmt.Sprintf("Pose backend %q unavailable (%s); using %s.", id, reason, r.fallback.DisplayName()), notifications.KindWarning)
}

func (r *Registry) closeBackend(b Backend) {
	if b == nil {
		return
	}
	if err := b.Close(); err != nil {
		r.logger.Debug("backend close failed",
			logging.String(logging.FieldBackend, b.ID()),
			logging.Error(err),
		)
	}
}

// Status reports the registry state.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// ActiveID returns the id of the backend serving estimates, or "" when none is.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.active != nil:
		return r.active.ID()
	case r.onFallback:
		return r.fallback.ID()
	default:
		return ""
	}
}

// ActiveDisplayName returns the human-readable name of the active backend.
func (r *Registry) ActiveDisplayName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.active != nil:
		return r.active.DisplayName()
	case r.onFallback:
		return r.fallback.DisplayName()
	default:
		return ""
	}
}

// LastFailure describes the most recent initialization failure.
func (r *Registry) LastFailure() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastFailure
}

// Estimate runs frame through the active backend.
func (r *Registry) Estimate(ctx context.Context, frame pose.Frame) (Output, error) {
	r.mu.RLock()
	active, onFallback, ready := r.active, r.onFallback, r.status.Ready()
	r.mu.RUnlock()

	switch {
	case !ready:
		return Output{}, ErrNotReady
	case active != nil:
		return active.Estimate(ctx, frame)
	case onFallback:
		return r.fallback.EstimateAlways(frame), nil
	default:
		return Output{}, ErrNotReady
	}
}

// Close releases the active backend. The registry reports failed afterwards.
func (r *Registry) Close() error {
	r.selectMu.Lock()
	defer r.selectMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	previous := r.active
	r.active = nil
	r.onFallback = false
	r.closed = true
	r.status = Status{State: StateFailed, Reason: "registry closed"}
	r.mu.Unlock()

	if previous == nil {
		return nil
	}
	if err := previous.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close backend %s: %w", previous.ID(), err)
	}
	return nil
}
