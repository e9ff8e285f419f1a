// Package analysis runs one pose through feature extraction, classification,
// and rule evaluation.
package analysis

import (
	"formcoach/internal/classify"
	"formcoach/internal/features"
	"formcoach/internal/pose"
	"formcoach/internal/rules"
)

// DefaultMinVisibleKeypoints is the minimum number of confident keypoints a
// pose needs before it is analyzed.
const DefaultMinVisibleKeypoints = 5

// Options configures a Pipeline.
type Options struct {
	MinConfidence       float64
	MinVisibleKeypoints int
	Classifier          classify.Options
	// Pinned fixes the exercise used for rule selection. Nil classifies
	// every frame.
	Pinned *classify.Label
}

// Result is the outcome of analyzing one usable pose.
type Result struct {
	Feedback  rules.Feedback
	Label     classify.Label
	AutoGuess classify.Label
	Features  features.Set
	Synthetic bool
}

// Pipeline is safe for concurrent use; it holds no per-frame state.
type Pipeline struct {
	minConfidence float64
	minVisible    int
	classifier    *classify.Classifier
	pinned        *classify.Label
}

// New builds a pipeline, substituting defaults for non-positive thresholds.
func New(opts Options) *Pipeline {
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = features.DefaultMinConfidence
	}
	if opts.MinVisibleKeypoints <= 0 {
		opts.MinVisibleKeypoints = DefaultMinVisibleKeypoints
	}
	var pinned *classify.Label
	if opts.Pinned != nil {
		label := *opts.Pinned
		pinned = &label
	}
	return &Pipeline{
		minConfidence: opts.MinConfidence,
		minVisible:    opts.MinVisibleKeypoints,
		classifier:    classify.New(opts.Classifier),
		pinned:        pinned,
	}
}

// Usable reports whether p carries enough confident keypoints to analyze:
// both shoulders plus the configured minimum overall.
func (p *Pipeline) Usable(subject pose.Pose) bool {
	if !subject.At(pose.LeftShoulder).Present(p.minConfidence) || !subject.At(pose.RightShoulder).Present(p.minConfidence) {
		return false
	}
	return subject.Visible(p.minConfidence) >= p.minVisible
}

// Analyze returns the verdict for subject. ok is false when the pose is not
// usable; no verdict is produced for such frames.
func (p *Pipeline) Analyze(subject pose.Pose) (Result, bool) {
	if !p.Usable(subject) {
		return Result{}, false
	}
	set := features.Extract(subject, p.minConfidence)
	decision := p.classifier.Decide(set, p.pinned)
	return Result{
		Feedback:  rules.Evaluate(decision.Label, set),
		Label:     decision.Label,
		AutoGuess: decision.AutoGuess,
		Features:  set,
		Synthetic: subject.Synthetic,
	}, true
}
