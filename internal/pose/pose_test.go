package pose_test

import (
	"math"
	"testing"

	"formcoach/internal/pose"
)

func TestPartByNameAcceptsCommonSpellings(t *testing.T) {
	cases := map[string]pose.Part{
		"left_shoulder":  pose.LeftShoulder,
		"leftShoulder":   pose.LeftShoulder,
		"Left Shoulder":  pose.LeftShoulder,
		"RIGHT-ANKLE":    pose.RightAnkle,
		" nose ":         pose.Nose,
		"right_elbow":    pose.RightElbow,
		"LeftHip":        pose.LeftHip,
		"right.knee":     pose.RightKnee,
		"left__wrist":    pose.LeftWrist,
		"rightEar":       pose.RightEar,
		"left_eye":       pose.LeftEye,
		"right_shoulder": pose.RightShoulder,
	}
	for name, want := range cases {
		got, ok := pose.PartByName(name)
		if !ok {
			t.Fatalf("PartByName(%q) not resolved", name)
		}
		if got != want {
			t.Fatalf("PartByName(%q) = %v, want %v", name, got, want)
		}
	}
	if _, ok := pose.PartByName("tail"); ok {
		t.Fatal("expected unknown landmark to be rejected")
	}
	if _, ok := pose.PartByName(""); ok {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestNewPoseKeepsAllSlots(t *testing.T) {
	p := pose.New()
	for i, kp := range p.Keypoints {
		if kp.Index != pose.Part(i) {
			t.Fatalf("slot %d carries index %d", i, kp.Index)
		}
		if kp.Confidence != 0 {
			t.Fatalf("slot %d expected zero confidence", i)
		}
	}
	if p.Visible(0.3) != 0 {
		t.Fatal("expected no visible keypoints")
	}
}

func TestSetClampsConfidence(t *testing.T) {
	p := pose.New()
	p.Set(pose.Keypoint{Index: pose.Nose, X: 1, Y: 2, Confidence: 1.7})
	p.Set(pose.Keypoint{Index: pose.LeftEye, Confidence: -0.2})
	p.Set(pose.Keypoint{Index: pose.Part(40), Confidence: 1})
	p.Set(pose.Keypoint{Index: pose.RightEye, Confidence: math.NaN()})

	if got := p.At(pose.Nose).Confidence; got != 1 {
		t.Fatalf("expected clamped confidence 1, got %v", got)
	}
	if got := p.At(pose.LeftEye).Confidence; got != 0 {
		t.Fatalf("expected clamped confidence 0, got %v", got)
	}
	if got := p.At(pose.RightEye).Confidence; got != 0 {
		t.Fatalf("expected NaN confidence to clamp to 0, got %v", got)
	}
	if p.Visible(0.3) != 1 {
		t.Fatalf("expected one visible keypoint, got %d", p.Visible(0.3))
	}
}

func TestRankPrefersDetectorScore(t *testing.T) {
	p := pose.New()
	for _, part := range pose.Parts() {
		p.Set(pose.Keypoint{Index: part, Confidence: 0.5})
	}
	if got := p.Rank(); got != 0.5 {
		t.Fatalf("expected mean confidence rank 0.5, got %v", got)
	}
	p.Score = 0.92
	if got := p.Rank(); got != 0.92 {
		t.Fatalf("expected detector score rank, got %v", got)
	}
}

func TestFrameDimensionsFallback(t *testing.T) {
	w, h := pose.Frame{}.Dimensions()
	if w != 640 || h != 480 {
		t.Fatalf("unexpected fallback dimensions %dx%d", w, h)
	}
	w, h = pose.Frame{Width: 1280, Height: 720}.Dimensions()
	if w != 1280 || h != 720 {
		t.Fatalf("unexpected dimensions %dx%d", w, h)
	}
}
