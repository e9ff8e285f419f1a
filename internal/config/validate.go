package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateAccess(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.ClassificationMode {
	case ModeAuto:
	case ModeManual:
		if c.Engine.Exercise == "" {
			return errors.New("engine.exercise must be set when engine.classification_mode is manual")
		}
	default:
		return fmt.Errorf("engine.classification_mode must be %q or %q", ModeAuto, ModeManual)
	}
	if c.Engine.MinKeypointConfidence < 0 || c.Engine.MinKeypointConfidence > 1 {
		return errors.New("engine.min_keypoint_confidence must be between 0 and 1")
	}
	if c.Engine.MinVisibleKeypoints > 17 {
		return errors.New("engine.min_visible_keypoints must be at most 17")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case SourceSynthetic:
	case SourceDirectory:
		if strings.TrimSpace(c.Source.FramesDir) == "" {
			return errors.New("source.frames_dir must be set when source.kind is directory")
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q", SourceSynthetic, SourceDirectory)
	}
	return nil
}

func (c *Config) validateBackends() error {
	switch c.Backends.Preferred {
	case BackendSynthetic:
	case BackendSubprocess:
		if !c.Backends.Subprocess.Enabled {
			return errors.New("backends.subprocess.enabled must be true when it is the preferred backend")
		}
	case BackendHTTP:
		if !c.Backends.HTTP.Enabled {
			return errors.New("backends.http.enabled must be true when it is the preferred backend")
		}
	default:
		return fmt.Errorf("backends.preferred: unknown backend %q", c.Backends.Preferred)
	}
	if c.Backends.Subprocess.Enabled && c.Backends.Subprocess.Command == "" {
		return errors.New("backends.subprocess.command must be set when backends.subprocess.enabled is true")
	}
	if c.Backends.HTTP.Enabled {
		url := c.Backends.HTTP.URL
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return errors.New("backends.http.url must be an http(s) URL when backends.http.enabled is true")
		}
	}
	return nil
}

func (c *Config) validateAccess() error {
	if c.Access.TrialLimit < 0 {
		return errors.New("access.trial_limit must be >= 0")
	}
	return nil
}
