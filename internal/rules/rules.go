package rules

import (
	"formcoach/internal/classify"
	"formcoach/internal/features"
)

// Confidence tiers attached to each verdict.
const (
	ConfidenceBodyLine      = 0.85
	ConfidenceHipSag        = 0.80
	ConfidenceLockout       = 0.90
	ConfidenceDeepBend      = 0.80
	ConfidencePushUpDefault = 0.75
	ConfidenceLevelGood     = 0.70
	ConfidenceLevelWarning  = 0.75
)

// Thresholds in degrees or pixels.
const (
	BodyLineMinDeg      = 160.0
	LockoutMinDeg       = 160.0
	DeepBendMaxDeg      = 80.0
	ShoulderLevelMaxPix = 20.0
)

// Verdict messages.
const (
	MsgBodyLine      = "Keep a straight line from shoulders to ankles."
	MsgHipSag        = "Hips are sagging; engage your core."
	MsgLockout       = "Good plank position at the top."
	MsgDeepBend      = "Keep elbows ~45° from your body."
	MsgPushUpDefault = "Solid push-up form."
	MsgLevelGood     = "Good posture; shoulders level."
	MsgLevelWarning  = "Keep your shoulders level."
)

// Rule is one ordered predicate with the verdict it yields.
type Rule struct {
	Name       string
	Severity   Severity
	Message    string
	Confidence float64
	Match      func(features.Set) bool
}

var pushUpRules = []Rule{
	{
		Name:       "body_line",
		Severity:   Warning,
		Message:    MsgBodyLine,
		Confidence: ConfidenceBodyLine,
		Match: func(f features.Set) bool {
			if !f.LeftBodyLine.OK || !f.RightBodyLine.OK {
				return false
			}
			return !(f.LeftBodyLine.Value > BodyLineMinDeg && f.RightBodyLine.Value > BodyLineMinDeg)
		},
	},
	{
		Name:       "hip_sag",
		Severity:   Warning,
		Message:    MsgHipSag,
		Confidence: ConfidenceHipSag,
		Match: func(f features.Set) bool {
			return f.HipSag.OK && f.HipSag.Value
		},
	},
	{
		Name:       "lockout",
		Severity:   Good,
		Message:    MsgLockout,
		Confidence: ConfidenceLockout,
		Match: func(f features.Set) bool {
			return bothElbows(f, func(deg float64) bool { return deg > LockoutMinDeg })
		},
	},
	{
		Name:       "deep_bend",
		Severity:   Warning,
		Message:    MsgDeepBend,
		Confidence: ConfidenceDeepBend,
		Match: func(f features.Set) bool {
			return bothElbows(f, func(deg float64) bool { return deg < DeepBendMaxDeg })
		},
	},
	{
		Name:       "pushup_default",
		Severity:   Good,
		Message:    MsgPushUpDefault,
		Confidence: ConfidencePushUpDefault,
		Match:      func(features.Set) bool { return true },
	},
}

var genericRules = []Rule{
	{
		Name:       "shoulders_level",
		Severity:   Good,
		Message:    MsgLevelGood,
		Confidence: ConfidenceLevelGood,
		Match: func(f features.Set) bool {
			return f.ShoulderLevel.OK && f.ShoulderLevel.Value < ShoulderLevelMaxPix
		},
	},
	{
		Name:       "shoulders_uneven",
		Severity:   Warning,
		Message:    MsgLevelWarning,
		Confidence: ConfidenceLevelWarning,
		Match:      func(features.Set) bool { return true },
	},
}

func bothElbows(f features.Set, pred func(float64) bool) bool {
	if !f.LeftElbow.OK || !f.RightElbow.OK {
		return false
	}
	return pred(f.LeftElbow.Value) && pred(f.RightElbow.Value)
}

// For returns the ordered rule list applied to label. Labels without a
// dedicated list, including the reserved squat, use the generic rules.
func For(label classify.Label) []Rule {
	switch label.Resolve() {
	case classify.PushUp:
		return pushUpRules
	default:
		return genericRules
	}
}

// Evaluate returns the verdict of the first matching rule for label. The
// generic fallback applies when no exercise rule matches.
func Evaluate(label classify.Label, f features.Set) Feedback {
	exercise := label.DisplayName()
	for _, rule := range For(label) {
		if rule.Match(f) {
			return rule.feedback(exercise)
		}
	}
	return genericRules[len(genericRules)-1].feedback(exercise)
}

func (r Rule) feedback(exercise string) Feedback {
	return Feedback{
		Message:      r.Message,
		Severity:     r.Severity,
		Confidence:   r.Confidence,
		ExerciseType: exercise,
		Rule:         r.Name,
	}
}
