package preflight

import (
	"context"

	"formcoach/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckWritableDirectory("Data directory", cfg.Paths.DataDir))

	if cfg.Source.Kind == config.SourceDirectory {
		results = append(results, CheckReadableDirectory("Frames directory", cfg.Source.FramesDir))
	}

	if cfg.Backends.Subprocess.Enabled {
		results = append(results, CheckSubprocess(cfg.Backends.Subprocess.Command))
	}

	if cfg.Backends.HTTP.Enabled {
		results = append(results, CheckPoseServer(ctx, cfg.Backends.HTTP.URL, cfg.Backends.HTTP.APIKey))
	}

	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
