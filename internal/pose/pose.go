package pose

import (
	"math"
	"time"
)

// Pose is the full canonical skeleton for one detected person.
type Pose struct {
	Keypoints [KeypointCount]Keypoint `json:"keypoints"`
	// Score is the detector's person score; zero when the backend has none.
	Score float64 `json:"score"`
	// Synthetic marks output produced by a placeholder generator rather
	// than real inference.
	Synthetic bool `json:"synthetic"`
}

// New returns a pose whose keypoints carry their canonical index and zero
// confidence.
func New() Pose {
	var p Pose
	for i := range p.Keypoints {
		p.Keypoints[i].Index = Part(i)
	}
	return p
}

// At returns the keypoint for part. Invalid parts yield a zero keypoint.
func (p Pose) At(part Part) Keypoint {
	if !part.Valid() {
		return Keypoint{Index: part}
	}
	return p.Keypoints[part]
}

// Set stores kp at its canonical slot, clamping confidence into [0,1].
func (p *Pose) Set(kp Keypoint) {
	if !kp.Index.Valid() {
		return
	}
	switch {
	case math.IsNaN(kp.Confidence), kp.Confidence < 0:
		kp.Confidence = 0
	case kp.Confidence > 1:
		kp.Confidence = 1
	}
	p.Keypoints[kp.Index] = kp
}

// Visible counts keypoints at or above minConfidence.
func (p Pose) Visible(minConfidence float64) int {
	n := 0
	for _, kp := range p.Keypoints {
		if kp.Present(minConfidence) {
			n++
		}
	}
	return n
}

// MeanConfidence averages confidence over all canonical keypoints.
func (p Pose) MeanConfidence() float64 {
	var sum float64
	for _, kp := range p.Keypoints {
		sum += kp.Confidence
	}
	return sum / KeypointCount
}

// Rank orders poses within a frame: the detector score when the backend
// reports one, otherwise mean keypoint confidence.
func (p Pose) Rank() float64 {
	if p.Score > 0 {
		return p.Score
	}
	return p.MeanConfidence()
}

// Frame is one decodable image from a frame source.
type Frame struct {
	Seq       uint64
	Width     int
	Height    int
	Timestamp time.Time
	// Format names the encoding of Data ("jpeg", "png", "raw", ...).
	Format string
	Data   []byte
}

const (
	defaultFrameWidth  = 640
	defaultFrameHeight = 480
)

// Dimensions returns the native size, falling back to 640x480 when the source
// did not report one.
func (f Frame) Dimensions() (int, int) {
	w, h := f.Width, f.Height
	if w <= 0 {
		w = defaultFrameWidth
	}
	if h <= 0 {
		h = defaultFrameHeight
	}
	return w, h
}
