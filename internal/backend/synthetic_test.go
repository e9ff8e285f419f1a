package backend

import (
	"math"
	"testing"

	"formcoach/internal/pose"
)

func TestSyntheticElbowAngleCycle(t *testing.T) {
	s := NewSynthetic(60)
	cases := []struct {
		seq  uint64
		want float64
	}{
		{0, 170},
		{30, 70},
		{15, 120},
		{60, 170},
	}
	for _, tc := range cases {
		if got := s.ElbowAngle(tc.seq); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("seq %d: expected %.2f, got %.4f", tc.seq, tc.want, got)
		}
	}
}

func TestSyntheticOutputShape(t *testing.T) {
	s := NewSynthetic(0)
	s.Prepare(Config{FrameWidth: 1280, FrameHeight: 720})

	out := s.EstimateAlways(pose.Frame{Seq: 7})
	if !out.Synthetic {
		t.Fatal("expected synthetic flag")
	}
	if out.Layout != LayoutCOCO17 {
		t.Fatalf("unexpected layout %q", out.Layout)
	}
	if len(out.Poses) != 1 || len(out.Poses[0].Keypoints) != pose.KeypointCount {
		t.Fatalf("expected one pose with %d keypoints, got %+v", pose.KeypointCount, out.Poses)
	}
	for _, kp := range out.Poses[0].Keypoints {
		if kp.X < 0 || kp.X > 1280 || kp.Y < 0 || kp.Y > 720 {
			t.Fatalf("keypoint %d outside prepared frame: %+v", kp.Index, kp)
		}
	}
}

func TestSyntheticIsDeterministic(t *testing.T) {
	a := NewSynthetic(40).EstimateAlways(pose.Frame{Seq: 13, Width: 640, Height: 480})
	b := NewSynthetic(40).EstimateAlways(pose.Frame{Seq: 13, Width: 640, Height: 480})
	for i := range a.Poses[0].Keypoints {
		if a.Poses[0].Keypoints[i] != b.Poses[0].Keypoints[i] {
			t.Fatalf("keypoint %d differs", i)
		}
	}
}
