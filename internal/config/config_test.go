package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"formcoach/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FORMCOACH_NTFY_TOPIC", "https://ntfy.sh/formcoach-test")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "formcoach")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "formcoach.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Access.TrialLimit != 3 {
		t.Fatalf("expected trial limit 3, got %d", cfg.Access.TrialLimit)
	}
	if cfg.Engine.MinKeypointConfidence != 0.3 {
		t.Fatalf("unexpected confidence floor %v", cfg.Engine.MinKeypointConfidence)
	}
	if cfg.Backends.Preferred != config.BackendSynthetic {
		t.Fatalf("unexpected preferred backend %q", cfg.Backends.Preferred)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/formcoach-test" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.RefreshInterval() != time.Second/30 {
		t.Fatalf("unexpected refresh interval %v", cfg.RefreshInterval())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "formcoach.toml")

	type payload struct {
		Engine struct {
			ClassificationMode string `toml:"classification_mode"`
			Exercise           string `toml:"exercise"`
			RefreshHz          int    `toml:"refresh_hz"`
		} `toml:"engine"`
		Access struct {
			TrialLimit int `toml:"trial_limit"`
		} `toml:"access"`
		Source struct {
			Kind      string `toml:"kind"`
			FramesDir string `toml:"frames_dir"`
		} `toml:"source"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Engine.ClassificationMode = "Manual"
	custom.Engine.Exercise = "push-up"
	custom.Engine.RefreshHz = 10
	custom.Access.TrialLimit = 5
	custom.Source.Kind = "Directory"
	custom.Source.FramesDir = tempDir
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if !cfg.Pinned() || cfg.Engine.Exercise != "push-up" {
		t.Fatalf("expected manual push-up, got %+v", cfg.Engine)
	}
	if cfg.Access.TrialLimit != 5 {
		t.Fatalf("expected trial limit 5, got %d", cfg.Access.TrialLimit)
	}
	if cfg.Source.Kind != config.SourceDirectory {
		t.Fatalf("expected directory source, got %q", cfg.Source.Kind)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json logging, got %q", cfg.Logging.Format)
	}
	if cfg.RefreshInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected refresh interval %v", cfg.RefreshInterval())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "formcoach.toml")
	if err := os.WriteFile(configPath, []byte("[engine]\nrefresh_rate = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "trial_limit = 3") {
		t.Fatalf("sample config missing trial limit: %s", contents)
	}

	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !strings.Contains(cfg.Paths.DataDir, "formcoach") {
		t.Fatalf("expected data dir to contain formcoach, got %q", cfg.Paths.DataDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"manual without exercise": func(c *config.Config) {
			c.Engine.ClassificationMode = config.ModeManual
		},
		"unknown mode": func(c *config.Config) {
			c.Engine.ClassificationMode = "sometimes"
		},
		"confidence above one": func(c *config.Config) {
			c.Engine.MinKeypointConfidence = 1.5
		},
		"directory without frames": func(c *config.Config) {
			c.Source.Kind = config.SourceDirectory
		},
		"disabled preferred backend": func(c *config.Config) {
			c.Backends.Preferred = config.BackendHTTP
		},
		"subprocess without command": func(c *config.Config) {
			c.Backends.Subprocess.Enabled = true
		},
		"http without url": func(c *config.Config) {
			c.Backends.HTTP.Enabled = true
		},
		"negative trial limit": func(c *config.Config) {
			c.Access.TrialLimit = -1
		},
		"zero notify timeout": func(c *config.Config) {
			c.Notifications.RequestTimeout = 0
		},
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLockPathSanitizesSourceName(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/formcoach"
	got := cfg.LockPath("/dev/video0")
	want := filepath.Join("/var/lib/formcoach", "source-_dev_video0.lock")
	if got != want {
		t.Fatalf("LockPath = %q, want %q", got, want)
	}
	if cfg.LockPath("  ") != filepath.Join("/var/lib/formcoach", "source-default.lock") {
		t.Fatalf("unexpected default lock path %q", cfg.LockPath(""))
	}
}
