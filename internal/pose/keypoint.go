package pose

import (
	"strings"
	"unicode"
)

// KeypointCount is the fixed length of the canonical skeleton.
const KeypointCount = 17

// Part identifies a body landmark by its canonical index.
type Part int

const (
	Nose Part = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

var partNames = [KeypointCount]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// Valid reports whether p is a canonical index.
func (p Part) Valid() bool {
	return p >= 0 && int(p) < KeypointCount
}

func (p Part) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return partNames[p]
}

// Parts returns every canonical part in index order.
func Parts() []Part {
	out := make([]Part, KeypointCount)
	for i := range out {
		out[i] = Part(i)
	}
	return out
}

// PartByName resolves a landmark name such as "left_shoulder",
// "leftShoulder", "Left Shoulder" or "LEFT-SHOULDER".
func PartByName(name string) (Part, bool) {
	key := canonicalName(name)
	if key == "" {
		return 0, false
	}
	for i, candidate := range partNames {
		if candidate == key {
			return Part(i), true
		}
	}
	return 0, false
}

func canonicalName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	prevLower := false
	for _, r := range name {
		switch {
		case r == '-' || r == ' ' || r == '.' || r == '_':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

// Keypoint is a single landmark with its detection confidence in [0,1].
type Keypoint struct {
	Index      Part    `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Present reports whether the keypoint meets the confidence floor.
func (k Keypoint) Present(minConfidence float64) bool {
	return k.Confidence > 0 && k.Confidence >= minConfidence
}
