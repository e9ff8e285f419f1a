package backend

import (
	"context"
	"errors"

	"formcoach/internal/pose"
)

// Layout names the keypoint ordering of a raw output.
type Layout string

const (
	// LayoutCOCO17 orders keypoints exactly as the canonical skeleton.
	LayoutCOCO17 Layout = "coco17"
	// LayoutBlazePose33 is the 33-landmark BlazePose ordering.
	LayoutBlazePose33 Layout = "blazepose33"
	// LayoutNamed identifies keypoints by name only.
	LayoutNamed Layout = "named"
)

var (
	// ErrUnknown is returned when a backend id is not registered.
	ErrUnknown = errors.New("unknown backend")
	// ErrNotReady is returned when no backend is active.
	ErrNotReady = errors.New("no backend ready")
)

// RawKeypoint is one landmark as reported by a backend. Index is used for
// indexed layouts, Name for the named layout.
type RawKeypoint struct {
	Index int     `json:"index"`
	Name  string  `json:"name,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// RawPose is one detected person before normalization.
type RawPose struct {
	Keypoints []RawKeypoint `json:"keypoints"`
	Score     float64       `json:"score"`
}

// Output is everything a backend returns for one frame.
type Output struct {
	Layout Layout    `json:"layout"`
	Poses  []RawPose `json:"poses"`
	// Normalized reports coordinates in [0,1] relative to the frame size.
	Normalized bool `json:"normalized"`
	Synthetic  bool `json:"synthetic"`
}

// Config is handed to every backend on initialization.
type Config struct {
	FrameWidth  int
	FrameHeight int
}

// Backend is a pose-estimation capability that may fail to come up.
type Backend interface {
	ID() string
	DisplayName() string
	Initialize(ctx context.Context, cfg Config) error
	Estimate(ctx context.Context, frame pose.Frame) (Output, error)
	Close() error
}

// Prober is implemented by backends that can report availability without
// fully initializing.
type Prober interface {
	Probe(ctx context.Context) error
}

// Fallback is a backend whose preparation and estimation cannot fail.
type Fallback interface {
	ID() string
	DisplayName() string
	Prepare(cfg Config)
	EstimateAlways(frame pose.Frame) Output
}
