package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formcoach/internal/access"
	"formcoach/internal/classify"
	"formcoach/internal/framesource"
	"formcoach/internal/logging"
	"formcoach/internal/notifications"
	"formcoach/internal/sessionstats"
)

const recordTimeout = 5 * time.Second

// Start opens a session. It never returns an error; failures are reported
// through the outcome, Status().Message, and the notification sink.
func (e *Engine) Start(ctx context.Context, caller Caller) StartOutcome {
	e.mu.Lock()
	if e.state != Idle {
		e.mu.Unlock()
		return AlreadyRunning
	}
	e.state = Starting
	e.abort = false
	e.message = ""
	previous := e.done
	e.mu.Unlock()

	if previous != nil {
		select {
		case <-previous:
		case <-ctx.Done():
			return e.abandonStart(Cancelled, "")
		}
	}

	if decision := e.gate.Check(caller.Authenticated); decision == access.LimitReached {
		limit := 0
		if g, ok := e.gate.(interface{ Limit() int }); ok {
			limit = g.Limit()
		}
		msg := decisionMessage(decision, limit)
		e.logger.Info("session refused",
			logging.String(logging.FieldEventType, "trial_limit_reached"),
		)
		e.sink.Push(msg, notifications.KindInfo)
		return e.abandonStart(LimitReached, msg)
	}

	if outcome, ok := e.ensureBackend(ctx); !ok {
		return outcome
	}

	if e.aborted() {
		return e.abandonStart(Cancelled, "")
	}

	src, err := e.source.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || e.aborted() {
			return e.abandonStart(Cancelled, "")
		}
		msg := fmt.Sprintf("Camera not available: %v", err)
		logging.WarnWithContext(e.logger, "frame source unavailable", "source_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check source.kind and source.frames_dir"),
			logging.String(logging.FieldImpact, "session not started"),
		)
		e.sink.Push(msg, notifications.KindWarning)
		return e.abandonStart(SourceUnavailable, msg)
	}

	if e.aborted() {
		_ = src.Close()
		return e.abandonStart(Cancelled, "")
	}

	return e.launch(ctx, src, caller)
}

func (e *Engine) ensureBackend(ctx context.Context) (StartOutcome, bool) {
	if e.backends.Status().Ready() {
		return Started, true
	}
	e.mu.Lock()
	preferred := e.preferred
	e.mu.Unlock()

	e.backends.Select(ctx, preferred)
	status := e.backends.Status()
	if status.Ready() {
		return Started, true
	}
	if e.aborted() || ctx.Err() != nil {
		return e.abandonStart(Cancelled, ""), false
	}
	msg := fmt.Sprintf("No pose backend available: %s", status.Reason)
	logging.ErrorWithContext(e.logger, "no pose backend available", "backend_unavailable",
		logging.String("reason", status.Reason),
		logging.String(logging.FieldErrorHint, "run formcoach doctor"),
	)
	e.sink.Push(msg, notifications.KindError)
	return e.abandonStart(BackendUnavailable, msg), false
}

func (e *Engine) aborted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.abort
}

func (e *Engine) abandonStart(outcome StartOutcome, message string) StartOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Idle
	e.abort = false
	e.message = message
	return outcome
}

// launch moves the engine to Running and only then consumes a trial, so a
// Stop that lands first costs nothing. A Stop during the commit ends a
// session that did start; Start still reports Started.
func (e *Engine) launch(ctx context.Context, src framesource.Source, caller Caller) StartOutcome {
	e.mu.Lock()
	if e.abort {
		e.state = Idle
		e.abort = false
		e.mu.Unlock()
		_ = src.Close()
		return Cancelled
	}
	backendID := e.backends.ActiveID()
	snap := e.stats.Start(backendID)
	e.generation++
	gen := e.generation
	loopCtx, cancel := context.WithCancel(context.Background())
	loopCtx = logging.WithSessionID(logging.WithBackend(loopCtx, backendID), snap.ID)
	done := make(chan struct{})
	e.cancel = cancel
	e.active = src
	e.done = done
	e.sessionID = snap.ID
	e.current = Update{}
	e.hasCurrent = false
	e.autoGuess = classify.Label{}
	e.state = Running
	e.mu.Unlock()

	if err := e.gate.Commit(ctx, caller.Authenticated); err != nil {
		return e.refuseUncommitted(gen, done, err)
	}

	if !e.isCurrent(gen) {
		close(done)
		return Started
	}
	logging.WithContext(loopCtx, e.logger).Info("session started",
		logging.String(logging.FieldEventType, "session_start"),
	)
	go e.loop(loopCtx, gen, src, done)
	return Started
}

// refuseUncommitted tears down a session whose trial could not be recorded.
// Anonymous sessions never run uncounted.
func (e *Engine) refuseUncommitted(gen uint64, done chan struct{}, err error) StartOutcome {
	defer close(done)
	msg := fmt.Sprintf("Trial usage could not be recorded: %v", err)
	logging.ErrorWithContext(e.logger, "trial counter not persisted", "trial_commit_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check that the data directory is writable"),
		logging.String(logging.FieldImpact, "session not started"),
	)
	e.sink.Push(msg, notifications.KindError)

	e.mu.Lock()
	if e.state != Running || e.generation != gen {
		// A concurrent Stop already tore the session down.
		e.message = msg
		e.mu.Unlock()
		return TrialUnavailable
	}
	e.state = Stopping
	cancel, src := e.cancel, e.active
	e.cancel = nil
	e.active = nil
	e.mu.Unlock()

	cancel()
	if err := src.Close(); err != nil {
		e.logger.Debug("frame source close failed", logging.Error(err))
	}
	e.stats.Discard()

	e.mu.Lock()
	e.state = Idle
	e.message = msg
	e.mu.Unlock()
	return TrialUnavailable
}

// Stop ends the running session and returns its final figures. Stopping an
// idle engine returns the last frozen snapshot. Stop before Start reaches
// Running makes Start return Cancelled without consuming a trial. Stop does
// not wait for an in-flight estimate.
func (e *Engine) Stop() sessionstats.Snapshot {
	e.mu.Lock()
	switch e.state {
	case Starting:
		e.abort = true
		e.mu.Unlock()
		return e.stats.Snapshot()
	case Running:
	default:
		e.mu.Unlock()
		return e.stats.Snapshot()
	}
	e.state = Stopping
	cancel, src, sessionID := e.cancel, e.active, e.sessionID
	e.cancel = nil
	e.active = nil
	e.mu.Unlock()

	cancel()
	if err := src.Close(); err != nil {
		e.logger.Debug("frame source close failed", logging.Error(err))
	}
	snap := e.stats.Stop()

	e.mu.Lock()
	e.state = Idle
	e.mu.Unlock()

	logger := logging.WithContext(logging.WithSessionID(context.Background(), sessionID), e.logger)
	logger.Info("session stopped",
		logging.String(logging.FieldEventType, "session_stop"),
		logging.Int("feedback_count", snap.FeedbackCount),
		logging.Float64("good_form_percentage", snap.GoodFormPercentage),
		logging.Float64("duration_seconds", snap.DurationSeconds),
	)
	e.record(snap)
	return snap
}

func (e *Engine) record(snap sessionstats.Snapshot) {
	if e.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := e.recorder.SaveSession(ctx, snap); err != nil {
			logging.WarnWithContext(e.logger, "session history not saved", "session_record_failed",
				logging.Error(err),
				logging.String(logging.FieldSessionID, snap.ID),
			)
		}
	}
	if e.summary {
		e.sink.Push(fmt.Sprintf("Session finished: %d checks, %.0f%% good form in %.0fs.",
			snap.FeedbackCount, snap.GoodFormPercentage, snap.DurationSeconds), notifications.KindSuccess)
	}
}
