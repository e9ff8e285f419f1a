package features

import (
	"math"

	"formcoach/internal/pose"
)

// DefaultMinConfidence is the keypoint confidence floor used when callers do
// not configure one.
const DefaultMinConfidence = 0.3

// HipSagFactor scales torso length when deciding whether hips sag below the
// shoulder line.
const HipSagFactor = 0.6

// minTorsoLength guards the hip-sag threshold when shoulders and hips share a
// row.
const minTorsoLength = 1.0

// Measure is a scalar that is only meaningful when OK is set.
type Measure struct {
	Value float64
	OK    bool
}

func measured(v float64) Measure { return Measure{Value: v, OK: true} }

// Flag is a boolean derived from keypoints that may be missing.
type Flag struct {
	Value bool
	OK    bool
}

// Set is the per-frame measurement bundle. Angles are in degrees, distances
// in pixels.
type Set struct {
	// Shoulder-elbow-wrist angles.
	LeftElbow  Measure
	RightElbow Measure
	// Shoulder-hip-ankle angles.
	LeftBodyLine  Measure
	RightBodyLine Measure
	// Hip-knee-ankle angles.
	LeftKnee  Measure
	RightKnee Measure

	ShoulderLevel Measure
	HipLevel      Measure

	ShoulderAvgY Measure
	HipAvgY      Measure
	TorsoLength  Measure
	// TorsoSpanX is the horizontal shoulder-to-hip distance.
	TorsoSpanX Measure
	HipSag     Flag

	KneeAnkleRatio Measure

	// Horizontal wrist-to-shoulder offsets per side.
	LeftWristOffset  Measure
	RightWristOffset Measure

	// Visible counts keypoints that passed the confidence floor.
	Visible int
}

// Extract computes the feature set for p. Keypoints with confidence below
// minConfidence are ignored; a non-positive minConfidence selects
// DefaultMinConfidence.
func Extract(p pose.Pose, minConfidence float64) Set {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	g := gated{pose: p, min: minConfidence}

	var s Set
	s.Visible = p.Visible(minConfidence)
	s.LeftElbow = g.angle(pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist)
	s.RightElbow = g.angle(pose.RightShoulder, pose.RightElbow, pose.RightWrist)
	s.LeftBodyLine = g.angle(pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle)
	s.RightBodyLine = g.angle(pose.RightShoulder, pose.RightHip, pose.RightAnkle)
	s.LeftKnee = g.angle(pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	s.RightKnee = g.angle(pose.RightHip, pose.RightKnee, pose.RightAnkle)

	s.ShoulderLevel = g.yDiff(pose.LeftShoulder, pose.RightShoulder)
	s.HipLevel = g.yDiff(pose.LeftHip, pose.RightHip)
	s.ShoulderAvgY = g.avgY(pose.LeftShoulder, pose.RightShoulder)
	s.HipAvgY = g.avgY(pose.LeftHip, pose.RightHip)

	if s.ShoulderAvgY.OK && s.HipAvgY.OK {
		torso := math.Abs(s.ShoulderAvgY.Value - s.HipAvgY.Value)
		s.TorsoLength = measured(torso)
		s.HipSag = Flag{Value: HipSags(s.ShoulderAvgY.Value, s.HipAvgY.Value), OK: true}
	}
	if sx, ok := g.avgX(pose.LeftShoulder, pose.RightShoulder); ok {
		if hx, ok := g.avgX(pose.LeftHip, pose.RightHip); ok {
			s.TorsoSpanX = measured(math.Abs(sx - hx))
		}
	}

	knee := g.xDiff(pose.LeftKnee, pose.RightKnee)
	ankle := g.xDiff(pose.LeftAnkle, pose.RightAnkle)
	if knee.OK && ankle.OK {
		ratio := 0.0
		if ankle.Value > 0 {
			ratio = knee.Value / ankle.Value
		}
		s.KneeAnkleRatio = measured(ratio)
	}

	s.LeftWristOffset = g.xDiff(pose.LeftWrist, pose.LeftShoulder)
	s.RightWristOffset = g.xDiff(pose.RightWrist, pose.RightShoulder)
	return s
}

// HipSags reports whether the hip row lies below the shoulder row by more
// than HipSagFactor of the torso length. Image y grows downward.
func HipSags(shoulderAvgY, hipAvgY float64) bool {
	torso := math.Abs(shoulderAvgY - hipAvgY)
	if torso < minTorsoLength {
		torso = minTorsoLength
	}
	return hipAvgY > shoulderAvgY+HipSagFactor*torso
}

type gated struct {
	pose pose.Pose
	min  float64
}

func (g gated) point(part pose.Part) (Point, bool) {
	kp := g.pose.At(part)
	if !kp.Present(g.min) {
		return Point{}, false
	}
	return Point{X: kp.X, Y: kp.Y}, true
}

func (g gated) angle(a, b, c pose.Part) Measure {
	pa, okA := g.point(a)
	pb, okB := g.point(b)
	pc, okC := g.point(c)
	if !okA || !okB || !okC {
		return Measure{}
	}
	return measured(Angle(pa, pb, pc))
}

func (g gated) yDiff(a, b pose.Part) Measure {
	pa, okA := g.point(a)
	pb, okB := g.point(b)
	if !okA || !okB {
		return Measure{}
	}
	return measured(math.Abs(pa.Y - pb.Y))
}

func (g gated) xDiff(a, b pose.Part) Measure {
	pa, okA := g.point(a)
	pb, okB := g.point(b)
	if !okA || !okB {
		return Measure{}
	}
	return measured(math.Abs(pa.X - pb.X))
}

func (g gated) avgY(a, b pose.Part) Measure {
	pa, okA := g.point(a)
	pb, okB := g.point(b)
	if !okA || !okB {
		return Measure{}
	}
	return measured((pa.Y + pb.Y) / 2)
}

func (g gated) avgX(a, b pose.Part) (float64, bool) {
	pa, okA := g.point(a)
	pb, okB := g.point(b)
	if !okA || !okB {
		return 0, false
	}
	return (pa.X + pb.X) / 2, true
}
