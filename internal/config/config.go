package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Engine contains analysis thresholds and the frame cadence.
type Engine struct {
	// ClassificationMode is "auto" or "manual".
	ClassificationMode    string  `toml:"classification_mode"`
	Exercise              string  `toml:"exercise"`
	MinKeypointConfidence float64 `toml:"min_keypoint_confidence"`
	MinVisibleKeypoints   int     `toml:"min_visible_keypoints"`
	RefreshHz             int     `toml:"refresh_hz"`
	LevelTolerance        float64 `toml:"level_tolerance"`
	WristBand             float64 `toml:"wrist_band"`
}

// Source selects where frames come from.
type Source struct {
	// Kind is "synthetic" or "directory".
	Kind      string `toml:"kind"`
	FramesDir string `toml:"frames_dir"`
	Loop      bool   `toml:"loop"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
}

// Subprocess configures the external pose worker.
type Subprocess struct {
	Enabled        bool     `toml:"enabled"`
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	StartupTimeout int      `toml:"startup_timeout"`
}

// HTTPBackend configures a remote pose server.
type HTTPBackend struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Synthetic configures the placeholder motion generator.
type Synthetic struct {
	PeriodFrames int `toml:"period_frames"`
}

// Backends lists estimation backends in preference order.
type Backends struct {
	Preferred  string      `toml:"preferred"`
	Subprocess Subprocess  `toml:"subprocess"`
	HTTP       HTTPBackend `toml:"http"`
	Synthetic  Synthetic   `toml:"synthetic"`
}

// Access configures the anonymous trial gate.
type Access struct {
	TrialLimit    int  `toml:"trial_limit"`
	Authenticated bool `toml:"authenticated"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SessionSummary bool   `toml:"session_summary"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for formcoach.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Engine: keypoint gating, classifier tolerances, refresh cadence
//   - Source: synthetic or directory-replay frame source
//   - Backends: pose estimation backends and the preferred one
//   - Access: anonymous trial limit
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Source        Source        `toml:"source"`
	Backends      Backends      `toml:"backends"`
	Access        Access        `toml:"access"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("formcoach.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file holding the trial counter and
// session history.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "formcoach.db")
}

// LockPath returns the lock file guarding the given frame source.
func (c *Config) LockPath(source string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(source))
	if name == "" {
		name = "default"
	}
	return filepath.Join(c.Paths.DataDir, "source-"+name+".lock")
}

// RefreshInterval converts the configured refresh rate into a tick interval.
func (c *Config) RefreshInterval() time.Duration {
	hz := c.Engine.RefreshHz
	if hz <= 0 {
		hz = defaultRefreshHz
	}
	return time.Second / time.Duration(hz)
}

// Pinned reports whether a manual exercise label is configured.
func (c *Config) Pinned() bool {
	return c.Engine.ClassificationMode == ModeManual
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
