package rules

import (
	"fmt"
	"strings"
)

// Severity grades a feedback verdict.
type Severity int

const (
	Good Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Good:
		return "good"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "good":
		*s = Good
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// Feedback is the verdict for one analyzed frame. Values are never mutated
// after Evaluate returns them.
type Feedback struct {
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	Confidence   float64  `json:"confidence"`
	ExerciseType string   `json:"exercise_type,omitempty"`
	// Rule names the rule that produced the verdict.
	Rule string `json:"rule"`
}
