package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"formcoach/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Notifications are disabled and the synthetic source and backend are used.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Notifications.SessionSummary = false
	cfgVal.Source.Kind = config.SourceSynthetic
	cfgVal.Backends.Preferred = config.BackendSynthetic
	cfgVal.Engine.RefreshHz = 200

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTrialLimit overrides the anonymous session limit.
func WithTrialLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Access.TrialLimit = limit
	}
}

// WithFramesDir switches the source to directory replay of dir.
func WithFramesDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.Kind = config.SourceDirectory
		b.cfg.Source.FramesDir = dir
	}
}

// WithManualExercise pins the exercise label.
func WithManualExercise(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.ClassificationMode = config.ModeManual
		b.cfg.Engine.Exercise = name
	}
}

// WithSubprocessWorker enables the subprocess backend with a script body
// written to the test's temp dir.
func WithSubprocessWorker(script string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "pose-worker")
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write worker stub: %v", err)
		}
		b.cfg.Backends.Subprocess.Enabled = true
		b.cfg.Backends.Subprocess.Command = target
		b.cfg.Backends.Preferred = config.BackendSubprocess
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
