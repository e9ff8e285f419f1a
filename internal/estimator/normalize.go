package estimator

import (
	"math"

	"formcoach/internal/backend"
	"formcoach/internal/pose"
)

// blazePoseParts maps BlazePose-33 landmark indices onto the canonical
// skeleton. Landmarks without a canonical counterpart are dropped.
var blazePoseParts = map[int]pose.Part{
	0:  pose.Nose,
	2:  pose.LeftEye,
	5:  pose.RightEye,
	7:  pose.LeftEar,
	8:  pose.RightEar,
	11: pose.LeftShoulder,
	12: pose.RightShoulder,
	13: pose.LeftElbow,
	14: pose.RightElbow,
	15: pose.LeftWrist,
	16: pose.RightWrist,
	23: pose.LeftHip,
	24: pose.RightHip,
	25: pose.LeftKnee,
	26: pose.RightKnee,
	27: pose.LeftAnkle,
	28: pose.RightAnkle,
}

// Normalize converts raw output into canonical poses. Keypoints the layout
// cannot place are ignored; canonical slots nothing filled keep zero
// confidence. Normalized coordinates are scaled to frame pixels. A keypoint
// with a non-finite coordinate or score is kept at the origin with zero
// confidence.
func Normalize(out backend.Output, frame pose.Frame) []pose.Pose {
	if len(out.Poses) == 0 {
		return nil
	}
	scaleX, scaleY := 1.0, 1.0
	if out.Normalized {
		w, h := frame.Dimensions()
		scaleX, scaleY = float64(w), float64(h)
	}

	poses := make([]pose.Pose, 0, len(out.Poses))
	for _, raw := range out.Poses {
		p := pose.New()
		if finite(raw.Score) {
			p.Score = raw.Score
		}
		p.Synthetic = out.Synthetic
		for _, kp := range raw.Keypoints {
			part, ok := resolve(out.Layout, kp)
			if !ok {
				continue
			}
			if !finite(kp.X) || !finite(kp.Y) || !finite(kp.Score) {
				p.Set(pose.Keypoint{Index: part})
				continue
			}
			p.Set(pose.Keypoint{
				Index:      part,
				X:          kp.X * scaleX,
				Y:          kp.Y * scaleY,
				Confidence: kp.Score,
			})
		}
		poses = append(poses, p)
	}
	return poses
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func resolve(layout backend.Layout, kp backend.RawKeypoint) (pose.Part, bool) {
	switch layout {
	case backend.LayoutBlazePose33:
		part, ok := blazePoseParts[kp.Index]
		return part, ok
	case backend.LayoutNamed:
		return pose.PartByName(kp.Name)
	default:
		part := pose.Part(kp.Index)
		return part, part.Valid()
	}
}
