package backend

import (
	"math"
	"sync"

	"formcoach/internal/pose"
)

// SyntheticID identifies the placeholder generator.
const SyntheticID = "synthetic"

const (
	defaultPeriodFrames = 60
	syntheticConfidence = 0.9
	// Elbow angle oscillates around this midpoint by syntheticSwing degrees.
	syntheticMidDeg   = 120.0
	syntheticSwingDeg = 50.0
)

// Synthetic emits a side-view push-up whose elbow angle follows a cosine
// over PeriodFrames. The pose depends only on the frame sequence number.
type Synthetic struct {
	period int

	mu     sync.RWMutex
	width  int
	height int
}

// NewSynthetic returns the generator. A non-positive period selects 60 frames.
func NewSynthetic(periodFrames int) *Synthetic {
	if periodFrames <= 0 {
		periodFrames = defaultPeriodFrames
	}
	return &Synthetic{period: periodFrames}
}

func (s *Synthetic) ID() string { return SyntheticID }

func (s *Synthetic) DisplayName() string { return "Synthetic motion (placeholder)" }

// Prepare records the default frame size used when frames carry none.
func (s *Synthetic) Prepare(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = cfg.FrameWidth
	s.height = cfg.FrameHeight
}

// ElbowAngle returns the generated elbow angle for a sequence number.
func (s *Synthetic) ElbowAngle(seq uint64) float64 {
	phase := float64(seq%uint64(s.period)) / float64(s.period)
	return syntheticMidDeg + syntheticSwingDeg*math.Cos(2*math.Pi*phase)
}

// EstimateAlways builds the pose for frame.
func (s *Synthetic) EstimateAlways(frame pose.Frame) Output {
	if frame.Width <= 0 || frame.Height <= 0 {
		s.mu.RLock()
		frame.Width, frame.Height = s.width, s.height
		s.mu.RUnlock()
	}
	w, h := frame.Dimensions()
	fw, fh := float64(w), float64(h)

	arm := fh * 0.125
	sx, sy := fw*0.3, fh*0.45
	hipX, ankleX := sx+fw*0.25, sx+fw*0.5
	half := s.ElbowAngle(frame.Seq) / 2 * math.Pi / 180
	dx, dy := arm*math.Cos(half), arm*math.Sin(half)

	kps := make([]RawKeypoint, 0, pose.KeypointCount)
	add := func(part pose.Part, x, y float64) {
		kps = append(kps, RawKeypoint{Index: int(part), X: x, Y: y, Score: syntheticConfidence})
	}
	add(pose.Nose, sx-fw*0.06, sy-fh*0.02)
	add(pose.LeftEye, sx-fw*0.055, sy-fh*0.03)
	add(pose.RightEye, sx-fw*0.055, sy-fh*0.03)
	add(pose.LeftEar, sx-fw*0.03, sy-fh*0.025)
	add(pose.RightEar, sx-fw*0.03, sy-fh*0.025)
	add(pose.LeftShoulder, sx, sy)
	add(pose.RightShoulder, sx, sy)
	add(pose.LeftElbow, sx+dx, sy+dy)
	add(pose.RightElbow, sx+dx, sy+dy)
	add(pose.LeftWrist, sx, sy+2*dy)
	add(pose.RightWrist, sx, sy+2*dy)
	add(pose.LeftHip, hipX, sy)
	add(pose.RightHip, hipX, sy)
	add(pose.LeftKnee, (hipX+ankleX)/2, sy)
	add(pose.RightKnee, (hipX+ankleX)/2, sy)
	add(pose.LeftAnkle, ankleX, sy)
	add(pose.RightAnkle, ankleX, sy)

	return Output{
		Layout:    LayoutCOCO17,
		Poses:     []RawPose{{Keypoints: kps, Score: syntheticConfidence}},
		Synthetic: true,
	}
}
