package estimator

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formcoach/internal/backend"
	"formcoach/internal/pose"
)

type sourceFunc func(context.Context, pose.Frame) (backend.Output, error)

func (f sourceFunc) Estimate(ctx context.Context, frame pose.Frame) (backend.Output, error) {
	return f(ctx, frame)
}

func TestNormalizeCOCO(t *testing.T) {
	out := backend.Output{
		Layout: backend.LayoutCOCO17,
		Poses: []backend.RawPose{{
			Score: 0.6,
			Keypoints: []backend.RawKeypoint{
				{Index: 5, X: 10, Y: 20, Score: 0.9},
				{Index: 40, X: 1, Y: 1, Score: 1},
			},
		}},
	}
	poses := Normalize(out, pose.Frame{})
	require.Len(t, poses, 1)

	p := poses[0]
	assert.Equal(t, 0.6, p.Score)
	assert.Equal(t, pose.Keypoint{Index: pose.LeftShoulder, X: 10, Y: 20, Confidence: 0.9}, p.At(pose.LeftShoulder))
	assert.Equal(t, 1, p.Visible(0.3))
	for _, part := range pose.Parts() {
		assert.Equal(t, part, p.At(part).Index, "every slot keeps its canonical index")
	}
}

func TestNormalizeBlazePose(t *testing.T) {
	out := backend.Output{
		Layout: backend.LayoutBlazePose33,
		Poses: []backend.RawPose{{
			Keypoints: []backend.RawKeypoint{
				{Index: 11, X: 100, Y: 50, Score: 0.8},
				{Index: 24, X: 120, Y: 150, Score: 0.7},
				{Index: 19, X: 5, Y: 5, Score: 0.9},
			},
		}},
	}
	p := Normalize(out, pose.Frame{})[0]
	assert.Equal(t, 100.0, p.At(pose.LeftShoulder).X)
	assert.Equal(t, 150.0, p.At(pose.RightHip).Y)
	assert.Equal(t, 2, p.Visible(0.3), "index finger landmark has no canonical slot")
}

func TestNormalizeNamedScalesNormalizedCoordinates(t *testing.T) {
	out := backend.Output{
		Layout:     backend.LayoutNamed,
		Normalized: true,
		Synthetic:  true,
		Poses: []backend.RawPose{{
			Keypoints: []backend.RawKeypoint{
				{Name: "rightShoulder", X: 0.5, Y: 0.25, Score: 1.4},
				{Name: "left-hip", X: 0.25, Y: 0.5, Score: 0.5},
				{Name: "tail", X: 0.1, Y: 0.1, Score: 0.9},
			},
		}},
	}
	p := Normalize(out, pose.Frame{Width: 800, Height: 600})[0]
	assert.True(t, p.Synthetic)
	assert.Equal(t, pose.Keypoint{Index: pose.RightShoulder, X: 400, Y: 150, Confidence: 1}, p.At(pose.RightShoulder))
	assert.Equal(t, 200.0, p.At(pose.LeftHip).X)
	assert.Equal(t, 2, p.Visible(0.3))
}

func TestNormalizeDropsNonFiniteKeypoints(t *testing.T) {
	out := backend.Output{
		Layout: backend.LayoutCOCO17,
		Poses: []backend.RawPose{{
			Score: math.NaN(),
			Keypoints: []backend.RawKeypoint{
				{Index: 5, X: 10, Y: 20, Score: 0.9},
				{Index: 11, X: math.NaN(), Y: 40, Score: 0.9},
				{Index: 12, X: 30, Y: math.Inf(1), Score: 0.9},
				{Index: 13, X: 30, Y: 40, Score: math.NaN()},
			},
		}},
	}
	p := Normalize(out, pose.Frame{})[0]

	assert.Zero(t, p.Score)
	assert.Equal(t, 1, p.Visible(0))
	for _, part := range []pose.Part{pose.LeftHip, pose.RightHip, pose.LeftKnee} {
		assert.Equal(t, pose.Keypoint{Index: part}, p.At(part))
	}
}

func TestEstimateSwallowsErrorsAndPanics(t *testing.T) {
	e := New(sourceFunc(func(context.Context, pose.Frame) (backend.Output, error) {
		return backend.Output{}, errors.New("timeout")
	}), nil)
	assert.Empty(t, e.Estimate(context.Background(), pose.Frame{}))
	assert.Equal(t, uint64(1), e.Failures())

	e = New(sourceFunc(func(context.Context, pose.Frame) (backend.Output, error) {
		panic("driver crashed")
	}), nil)
	assert.Empty(t, e.Estimate(context.Background(), pose.Frame{}))
	assert.Equal(t, uint64(1), e.Failures())
}

func TestEstimateThroughRegistryFallback(t *testing.T) {
	reg := backend.NewRegistry(backend.NewSynthetic(60), backend.Options{})
	reg.Select(context.Background(), backend.SyntheticID)

	poses := New(reg, nil).Estimate(context.Background(), pose.Frame{Seq: 0, Width: 640, Height: 480})
	require.Len(t, poses, 1)
	assert.True(t, poses[0].Synthetic)
	assert.Equal(t, pose.KeypointCount, poses[0].Visible(0.3))
}

func TestBestPrefersHighestRank(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	low := pose.New()
	low.Score = 0.4
	high := pose.New()
	high.Score = 0.9
	unscored := pose.New()
	for _, part := range pose.Parts() {
		unscored.Set(pose.Keypoint{Index: part, Confidence: 0.5})
	}

	best, ok := Best([]pose.Pose{low, unscored, high})
	require.True(t, ok)
	assert.Equal(t, 0.9, best.Score)

	best, _ = Best([]pose.Pose{low, unscored})
	assert.Zero(t, best.Score, "mean confidence 0.5 beats score 0.4")
}
