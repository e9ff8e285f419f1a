package classify

import "formcoach/internal/features"

// Options tunes the heuristic tolerances, in pixels.
type Options struct {
	// LevelTolerance bounds the left/right y difference for shoulders and hips.
	LevelTolerance float64
	// WristBand bounds the horizontal wrist-to-shoulder offset.
	WristBand float64
}

// DefaultOptions returns the tolerances used by the engine.
func DefaultOptions() Options {
	return Options{LevelTolerance: 30, WristBand: 60}
}

type rule struct {
	name  string
	label Label
	match func(Options, features.Set) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{name: "plank_support", label: Label{Kind: PushUp}, match: matchPushUp},
	{name: "upper_body", label: Label{Kind: Generic}, match: matchGeneric},
}

func matchPushUp(opts Options, f features.Set) bool {
	if !f.ShoulderLevel.OK || !f.HipLevel.OK || !f.LeftWristOffset.OK || !f.RightWristOffset.OK {
		return false
	}
	if f.ShoulderLevel.Value > opts.LevelTolerance || f.HipLevel.Value > opts.LevelTolerance {
		return false
	}
	if f.LeftWristOffset.Value > opts.WristBand || f.RightWristOffset.Value > opts.WristBand {
		return false
	}
	// Wrists stacked under shoulders only means a plank when the torso runs
	// sideways rather than upright.
	return f.TorsoSpanX.OK && f.TorsoLength.OK && f.TorsoSpanX.Value > f.TorsoLength.Value
}

func matchGeneric(_ Options, f features.Set) bool {
	return f.ShoulderLevel.OK
}

// Classifier maps feature sets to exercise labels.
type Classifier struct {
	opts Options
}

// New returns a classifier. Non-positive tolerances take their defaults.
func New(opts Options) *Classifier {
	def := DefaultOptions()
	if opts.LevelTolerance <= 0 {
		opts.LevelTolerance = def.LevelTolerance
	}
	if opts.WristBand <= 0 {
		opts.WristBand = def.WristBand
	}
	return &Classifier{opts: opts}
}

// Classify returns the first matching label, or Unknown.
func (c *Classifier) Classify(f features.Set) Label {
	for _, r := range rules {
		if r.match(c.opts, f) {
			return r.label
		}
	}
	return Label{Kind: Unknown}
}

// Decision carries the label used for rule selection and the automatic guess.
type Decision struct {
	Label     Label
	AutoGuess Label
	Pinned    bool
}

// Decide classifies f and applies a pinned label when one is given. The
// automatic guess is always computed but never overrides a pin.
func (c *Classifier) Decide(f features.Set, pinned *Label) Decision {
	guess := c.Classify(f)
	if pinned != nil {
		return Decision{Label: *pinned, AutoGuess: guess, Pinned: true}
	}
	return Decision{Label: guess, AutoGuess: guess}
}
