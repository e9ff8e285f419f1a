package testsupport

import (
	"math"

	"formcoach/internal/pose"
)

// PushUpPose describes a side-view push-up skeleton. Zero values give a
// straight plank at the top of the movement with level shoulders.
type PushUpPose struct {
	// ElbowDeg is the shoulder-elbow-wrist angle on both arms. Zero means 170.
	ElbowDeg float64
	// HipDrop moves the hips down (positive) or up (negative) in pixels.
	HipDrop float64
	// ShoulderTilt lowers the right shoulder by this many pixels.
	ShoulderTilt float64
	// Confidence applied to every keypoint. Zero means 0.9.
	Confidence float64
	// Hide lists parts to report with zero confidence.
	Hide []pose.Part
}

const (
	plankShoulderX = 200.0
	plankHipX      = 350.0
	plankAnkleX    = 500.0
	plankY         = 200.0
	armSegment     = 60.0
)

// Build returns the canonical pose for the described stance.
func (o PushUpPose) Build() pose.Pose {
	elbow := o.ElbowDeg
	if elbow == 0 {
		elbow = 170
	}
	conf := o.Confidence
	if conf == 0 {
		conf = 0.9
	}
	half := elbow / 2 * math.Pi / 180
	dx := armSegment * math.Cos(half)
	dy := armSegment * math.Sin(half)

	p := pose.New()
	set := func(part pose.Part, x, y float64) {
		p.Set(pose.Keypoint{Index: part, X: x, Y: y, Confidence: conf})
	}
	set(pose.Nose, plankShoulderX-40, plankY-10)
	set(pose.LeftEye, plankShoulderX-35, plankY-15)
	set(pose.RightEye, plankShoulderX-35, plankY-15)
	set(pose.LeftEar, plankShoulderX-20, plankY-12)
	set(pose.RightEar, plankShoulderX-20, plankY-12)
	for _, side := range []struct {
		shoulder, elbow, wrist, hip, knee, ankle pose.Part
		tilt                                     float64
	}{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, 0},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightKnee, pose.RightAnkle, o.ShoulderTilt},
	} {
		sy := plankY + side.tilt
		set(side.shoulder, plankShoulderX, sy)
		set(side.elbow, plankShoulderX+dx, sy+dy)
		set(side.wrist, plankShoulderX, sy+2*dy)
		set(side.hip, plankHipX, plankY+o.HipDrop)
		set(side.knee, (plankHipX+plankAnkleX)/2, plankY+o.HipDrop/2)
		set(side.ankle, plankAnkleX, plankY)
	}
	for _, part := range o.Hide {
		kp := p.At(part)
		kp.Confidence = 0
		p.Set(kp)
	}
	return p
}

// StandingPose returns a front-facing upright skeleton with the right
// shoulder lowered by tilt pixels.
func StandingPose(tilt float64) pose.Pose {
	p := pose.New()
	set := func(part pose.Part, x, y float64) {
		p.Set(pose.Keypoint{Index: part, X: x, Y: y, Confidence: 0.9})
	}
	set(pose.Nose, 320, 80)
	set(pose.LeftEye, 330, 70)
	set(pose.RightEye, 310, 70)
	set(pose.LeftEar, 340, 75)
	set(pose.RightEar, 300, 75)
	set(pose.LeftShoulder, 380, 140)
	set(pose.RightShoulder, 260, 140+tilt)
	set(pose.LeftElbow, 400, 220)
	set(pose.RightElbow, 240, 220)
	set(pose.LeftWrist, 405, 300)
	set(pose.RightWrist, 235, 300)
	set(pose.LeftHip, 360, 300)
	set(pose.RightHip, 280, 300)
	set(pose.LeftKnee, 362, 400)
	set(pose.RightKnee, 278, 400)
	set(pose.LeftAnkle, 364, 500)
	set(pose.RightAnkle, 276, 500)
	return p
}
