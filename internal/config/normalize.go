package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeBackends()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.ClassificationMode = strings.ToLower(strings.TrimSpace(c.Engine.ClassificationMode))
	if c.Engine.ClassificationMode == "" {
		c.Engine.ClassificationMode = ModeAuto
	}
	c.Engine.Exercise = strings.TrimSpace(c.Engine.Exercise)
	if c.Engine.MinVisibleKeypoints <= 0 {
		c.Engine.MinVisibleKeypoints = defaultMinVisibleKeypoints
	}
	if c.Engine.RefreshHz <= 0 {
		c.Engine.RefreshHz = defaultRefreshHz
	}
	if c.Engine.LevelTolerance <= 0 {
		c.Engine.LevelTolerance = defaultLevelTolerance
	}
	if c.Engine.WristBand <= 0 {
		c.Engine.WristBand = defaultWristBand
	}
}

func (c *Config) normalizeSource() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = SourceSynthetic
	}
	if strings.TrimSpace(c.Source.FramesDir) != "" {
		var err error
		if c.Source.FramesDir, err = expandPath(c.Source.FramesDir); err != nil {
			return fmt.Errorf("source.frames_dir: %w", err)
		}
	}
	if c.Source.Width <= 0 {
		c.Source.Width = defaultSourceWidth
	}
	if c.Source.Height <= 0 {
		c.Source.Height = defaultSourceHeight
	}
	return nil
}

func (c *Config) normalizeBackends() {
	c.Backends.Preferred = strings.ToLower(strings.TrimSpace(c.Backends.Preferred))
	if c.Backends.Preferred == "" {
		c.Backends.Preferred = BackendSynthetic
	}
	c.Backends.Subprocess.Command = strings.TrimSpace(c.Backends.Subprocess.Command)
	if c.Backends.Subprocess.StartupTimeout <= 0 {
		c.Backends.Subprocess.StartupTimeout = defaultSubprocessTimeout
	}
	c.Backends.HTTP.URL = strings.TrimRight(strings.TrimSpace(c.Backends.HTTP.URL), "/")
	c.Backends.HTTP.APIKey = strings.TrimSpace(c.Backends.HTTP.APIKey)
	if c.Backends.HTTP.APIKey == "" {
		if value, ok := os.LookupEnv("FORMCOACH_POSE_API_KEY"); ok {
			c.Backends.HTTP.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Backends.HTTP.TimeoutSeconds <= 0 {
		c.Backends.HTTP.TimeoutSeconds = defaultHTTPTimeout
	}
	if c.Backends.Synthetic.PeriodFrames <= 0 {
		c.Backends.Synthetic.PeriodFrames = defaultSyntheticPeriod
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FORMCOACH_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
