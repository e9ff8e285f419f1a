package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formcoach/internal/backend"
	"formcoach/internal/config"
	"formcoach/internal/pose"
	"formcoach/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "formcoach", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writePoseFile stores p in the backend wire format with pixel coordinates.
func writePoseFile(t *testing.T, dir string, p pose.Pose) string {
	t.Helper()
	raw := backend.RawPose{Score: 0.9}
	for _, kp := range p.Keypoints {
		raw.Keypoints = append(raw.Keypoints, backend.RawKeypoint{
			Index: int(kp.Index),
			X:     kp.X,
			Y:     kp.Y,
			Score: kp.Confidence,
		})
	}
	data, err := json.Marshal(backend.Output{Layout: backend.LayoutCOCO17, Poses: []backend.RawPose{raw}})
	if err != nil {
		t.Fatalf("marshal pose: %v", err)
	}
	path := filepath.Join(dir, "pose.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write pose: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
