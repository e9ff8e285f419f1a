package rules_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"formcoach/internal/classify"
	"formcoach/internal/features"
	"formcoach/internal/pose"
	"formcoach/internal/rules"
	"formcoach/internal/testsupport"
)

var pushUp = classify.Label{Kind: classify.PushUp}

func evaluate(label classify.Label, p pose.Pose) rules.Feedback {
	return rules.Evaluate(label, features.Extract(p, features.DefaultMinConfidence))
}

func TestEvaluateIsDeterministic(t *testing.T) {
	set := features.Extract(testsupport.PushUpPose{ElbowDeg: 120, HipDrop: 30}.Build(), 0.3)
	first := rules.Evaluate(pushUp, set)
	for i := 0; i < 50; i++ {
		if diff := cmp.Diff(first, rules.Evaluate(pushUp, set)); diff != "" {
			t.Fatalf("evaluation changed between calls (-first +got):\n%s", diff)
		}
	}
}

func TestBodyLineWinsOverHipSag(t *testing.T) {
	set := features.Extract(testsupport.PushUpPose{HipDrop: 80}.Build(), 0.3)
	if !set.HipSag.OK || !set.HipSag.Value {
		t.Fatalf("fixture should trip hip sag, got %+v", set.HipSag)
	}
	if set.LeftBodyLine.Value > rules.BodyLineMinDeg {
		t.Fatalf("fixture should break the body line, got %v", set.LeftBodyLine.Value)
	}

	got := rules.Evaluate(pushUp, set)
	if got.Rule != "body_line" || got.Severity != rules.Warning || got.Message != rules.MsgBodyLine {
		t.Fatalf("expected body-line warning, got %+v", got)
	}
	if got.Confidence != rules.ConfidenceBodyLine {
		t.Fatalf("unexpected confidence %v", got.Confidence)
	}
}

func TestPushUpVerdicts(t *testing.T) {
	cases := []struct {
		name     string
		pose     testsupport.PushUpPose
		rule     string
		severity rules.Severity
		message  string
	}{
		{"piked hips", testsupport.PushUpPose{HipDrop: -70}, "body_line", rules.Warning, rules.MsgBodyLine},
		{"lockout", testsupport.PushUpPose{ElbowDeg: 172}, "lockout", rules.Good, rules.MsgLockout},
		{"deep bend", testsupport.PushUpPose{ElbowDeg: 70}, "deep_bend", rules.Warning, rules.MsgDeepBend},
		{"mid range", testsupport.PushUpPose{ElbowDeg: 120}, "pushup_default", rules.Good, rules.MsgPushUpDefault},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluate(pushUp, tc.pose.Build())
			want := rules.Feedback{Rule: tc.rule, Severity: tc.severity, Message: tc.message, ExerciseType: "Push-Up"}
			if diff := cmp.Diff(want, got, cmp.FilterPath(func(p cmp.Path) bool {
				return p.Last().String() == ".Confidence"
			}, cmp.Ignore())); diff != "" {
				t.Fatalf("unexpected verdict (-want +got):\n%s", diff)
			}
		})
	}
}

func TestElbowSequenceReevaluatesEachFrame(t *testing.T) {
	want := []rules.Severity{rules.Good, rules.Warning, rules.Good}
	wantRules := []string{"lockout", "deep_bend", "lockout"}
	for i, elbow := range []float64{170, 75, 170} {
		got := evaluate(pushUp, testsupport.PushUpPose{ElbowDeg: elbow}.Build())
		if got.Severity != want[i] || got.Rule != wantRules[i] {
			t.Fatalf("frame %d (elbow %v): got %s/%s, want %s/%s", i, elbow, got.Severity, got.Rule, want[i], wantRules[i])
		}
	}
}

func TestMissingInputsSkipRules(t *testing.T) {
	p := testsupport.PushUpPose{HipDrop: -70, ElbowDeg: 172, Hide: []pose.Part{pose.LeftAnkle}}.Build()
	got := evaluate(pushUp, p)
	if got.Rule != "lockout" {
		t.Fatalf("expected body-line rule to be skipped without ankles, got %+v", got)
	}
}

func TestShoulderLevelTolerance(t *testing.T) {
	generic := classify.Label{Kind: classify.Generic}

	level := evaluate(generic, testsupport.StandingPose(5))
	if level.Severity != rules.Good || strings.Contains(strings.ToLower(level.Message), "keep your shoulders") {
		t.Fatalf("5px difference should be accepted, got %+v", level)
	}
	if level.Confidence != rules.ConfidenceLevelGood {
		t.Fatalf("unexpected confidence %v", level.Confidence)
	}

	uneven := evaluate(generic, testsupport.StandingPose(50))
	if uneven.Severity != rules.Warning {
		t.Fatalf("50px difference should warn, got %+v", uneven)
	}
	if !strings.Contains(strings.ToLower(uneven.Message), "shoulders level") {
		t.Fatalf("warning should mention shoulder alignment, got %q", uneven.Message)
	}
}

func TestNonPushUpLabelsUseGenericRules(t *testing.T) {
	for _, label := range []classify.Label{
		{Kind: classify.Squat},
		{Kind: classify.Unknown},
		classify.ManualLabel("lunges"),
	} {
		got := evaluate(label, testsupport.StandingPose(50))
		if got.Rule != "shoulders_uneven" {
			t.Fatalf("label %s: expected generic rules, got %+v", label, got)
		}
		if got.ExerciseType != label.DisplayName() {
			t.Fatalf("label %s: exercise type %q", label, got.ExerciseType)
		}
	}

	manual := evaluate(classify.ManualLabel("push ups"), testsupport.PushUpPose{ElbowDeg: 70}.Build())
	if manual.Rule != "deep_bend" {
		t.Fatalf("manual push-up label should use push-up rules, got %+v", manual)
	}
}

func TestConfidenceTiersStayInRange(t *testing.T) {
	for _, label := range []classify.Label{pushUp, {Kind: classify.Generic}} {
		for _, rule := range rules.For(label) {
			if rule.Confidence < 0.7 || rule.Confidence > 0.9 {
				t.Fatalf("rule %s confidence %v outside tier range", rule.Name, rule.Confidence)
			}
		}
	}
}

func TestSeverityText(t *testing.T) {
	var s rules.Severity
	if err := s.UnmarshalText([]byte("Warning")); err != nil || s != rules.Warning {
		t.Fatalf("unmarshal warning: %v %v", s, err)
	}
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatal("expected error for unknown severity")
	}
	text, _ := rules.Good.MarshalText()
	if string(text) != "good" {
		t.Fatalf("unexpected text %q", text)
	}
}
