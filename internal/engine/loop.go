package engine

import (
	"context"

	"formcoach/internal/analysis"
	"formcoach/internal/estimator"
	"formcoach/internal/framesource"
	"formcoach/internal/logging"
	"formcoach/internal/pose"
)

func (e *Engine) loop(ctx context.Context, gen uint64, src framesource.Source, done chan struct{}) {
	defer close(done)
	logger := logging.WithContext(ctx, e.logger)
	defer logger.Debug("frame loop exited")

	for {
		if err := e.refresher.Wait(ctx); err != nil {
			return
		}
		if !e.isCurrent(gen) {
			return
		}
		frame, ok := src.Current()
		if !ok {
			continue
		}

		poses := e.estimator.Estimate(ctx, frame)
		if ctx.Err() != nil || !e.isCurrent(gen) {
			return
		}
		best, ok := estimator.Best(poses)
		if !ok {
			continue
		}
		result, ok := e.pipeline.Analyze(best)
		if !ok {
			logger.Debug("pose skipped", logging.Uint64(logging.FieldFrameSeq, frame.Seq))
			continue
		}
		e.publish(gen, frame, result)
	}
}

func (e *Engine) publish(gen uint64, frame pose.Frame, result analysis.Result) {
	e.mu.Lock()
	if e.state != Running || e.generation != gen {
		e.mu.Unlock()
		return
	}
	update := Update{
		SessionID: e.sessionID,
		FrameSeq:  frame.Seq,
		Feedback:  result.Feedback,
		Label:     result.Label,
		AutoGuess: result.AutoGuess,
		Synthetic: result.Synthetic,
		At:        e.now(),
	}
	e.current = update
	e.hasCurrent = true
	e.autoGuess = result.AutoGuess
	e.stats.Append(result.Feedback)
	subs := make([]*Subscription, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	for _, s := range subs {
		s.offer(update)
	}
	e.renderer.Render(update)
}
