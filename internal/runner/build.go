package runner

import (
	"fmt"
	"log/slog"
	"time"

	"formcoach/internal/analysis"
	"formcoach/internal/backend"
	"formcoach/internal/classify"
	"formcoach/internal/config"
	"formcoach/internal/framesource"
	"formcoach/internal/notifications"
)

// BuildRegistry registers the enabled backends in preference order with the
// synthetic generator as fallback.
func BuildRegistry(cfg *config.Config, sink notifications.Sink, logger *slog.Logger) *backend.Registry {
	var candidates []backend.Backend
	if cfg.Backends.Subprocess.Enabled {
		candidates = append(candidates, backend.NewSubprocess(backend.SubprocessOptions{
			Command:        cfg.Backends.Subprocess.Command,
			Args:           cfg.Backends.Subprocess.Args,
			StartupTimeout: time.Duration(cfg.Backends.Subprocess.StartupTimeout) * time.Second,
			Logger:         logger,
		}))
	}
	if cfg.Backends.HTTP.Enabled {
		candidates = append(candidates, backend.NewHTTP(backend.HTTPOptions{
			BaseURL: cfg.Backends.HTTP.URL,
			APIKey:  cfg.Backends.HTTP.APIKey,
			Timeout: time.Duration(cfg.Backends.HTTP.TimeoutSeconds) * time.Second,
		}))
	}

	return backend.NewRegistry(
		backend.NewSynthetic(cfg.Backends.Synthetic.PeriodFrames),
		backend.Options{
			Config: backend.Config{FrameWidth: cfg.Source.Width, FrameHeight: cfg.Source.Height},
			Sink:   sink,
			Logger: logger,
		},
		candidates...,
	)
}

// BuildSource returns the configured frame provider.
func BuildSource(cfg *config.Config, logger *slog.Logger) framesource.Provider {
	if cfg.Source.Kind == config.SourceDirectory {
		return framesource.NewDirectory(framesource.DirectoryOptions{
			Dir:    cfg.Source.FramesDir,
			Loop:   cfg.Source.Loop,
			FPS:    cfg.Engine.RefreshHz,
			Logger: logger,
		})
	}
	return framesource.Blank{Width: cfg.Source.Width, Height: cfg.Source.Height}
}

// BuildPipeline translates the engine thresholds. exercise overrides the
// configured mode: "auto" classifies, anything else pins the label.
func BuildPipeline(cfg *config.Config, exercise string) (*analysis.Pipeline, error) {
	opts := analysis.Options{
		MinConfidence:       cfg.Engine.MinKeypointConfidence,
		MinVisibleKeypoints: cfg.Engine.MinVisibleKeypoints,
		Classifier: classify.Options{
			LevelTolerance: cfg.Engine.LevelTolerance,
			WristBand:      cfg.Engine.WristBand,
		},
	}
	if opts.Classifier.LevelTolerance <= 0 || opts.Classifier.WristBand <= 0 {
		defaults := classify.DefaultOptions()
		if opts.Classifier.LevelTolerance <= 0 {
			opts.Classifier.LevelTolerance = defaults.LevelTolerance
		}
		if opts.Classifier.WristBand <= 0 {
			opts.Classifier.WristBand = defaults.WristBand
		}
	}

	name := exercise
	if name == "" && cfg.Pinned() {
		name = cfg.Engine.Exercise
		if name == "" {
			return nil, fmt.Errorf("manual classification requires an exercise")
		}
	}
	if label, ok := classify.ParseLabel(name); ok {
		opts.Pinned = &label
	}
	return analysis.New(opts), nil
}
