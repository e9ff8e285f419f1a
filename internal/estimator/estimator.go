// Package estimator adapts raw backend output to canonical 17-keypoint poses.
package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"formcoach/internal/backend"
	"formcoach/internal/logging"
	"formcoach/internal/pose"
)

// Source produces raw backend output for a frame. *backend.Registry
// satisfies it.
type Source interface {
	Estimate(ctx context.Context, frame pose.Frame) (backend.Output, error)
}

// Estimator turns frames into canonical poses. Backend failures never
// escape: they are logged at debug level, counted, and reported as no
// detection.
type Estimator struct {
	source   Source
	logger   *slog.Logger
	failures atomic.Uint64
}

// New wraps source.
func New(source Source, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Estimator{
		source: source,
		logger: logging.NewComponentLogger(logger, "estimator"),
	}
}

// Estimate returns zero or more canonical poses for frame.
func (e *Estimator) Estimate(ctx context.Context, frame pose.Frame) (poses []pose.Pose) {
	defer func() {
		if r := recover(); r != nil {
			e.failures.Add(1)
			e.logger.Debug("backend panicked",
				logging.Uint64(logging.FieldFrameSeq, frame.Seq),
				logging.String("panic", fmt.Sprint(r)),
			)
			poses = nil
		}
	}()

	out, err := e.source.Estimate(ctx, frame)
	if err != nil {
		e.failures.Add(1)
		e.logger.Debug("estimate failed",
			logging.Uint64(logging.FieldFrameSeq, frame.Seq),
			logging.Error(err),
		)
		return nil
	}
	return Normalize(out, frame)
}

// Failures counts estimates that produced an error or panic.
func (e *Estimator) Failures() uint64 {
	return e.failures.Load()
}

// Best returns the highest-ranked pose.
func Best(poses []pose.Pose) (pose.Pose, bool) {
	if len(poses) == 0 {
		return pose.Pose{}, false
	}
	best := poses[0]
	for _, p := range poses[1:] {
		if p.Rank() > best.Rank() {
			best = p
		}
	}
	return best, true
}
