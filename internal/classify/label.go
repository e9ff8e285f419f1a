package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind enumerates the exercise label variants.
type Kind int

const (
	Unknown Kind = iota
	PushUp
	// Squat is reserved; no automatic rule emits it yet.
	Squat
	Generic
	Manual
)

func (k Kind) String() string {
	switch k {
	case PushUp:
		return "pushup"
	case Squat:
		return "squat"
	case Generic:
		return "generic"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

// Label is the exercise chosen for one frame. Name is only set for Manual.
type Label struct {
	Kind Kind
	Name string
}

// ManualLabel pins a caller-chosen exercise name.
func ManualLabel(name string) Label {
	return Label{Kind: Manual, Name: strings.TrimSpace(name)}
}

func (l Label) String() string {
	if l.Kind == Manual {
		return "manual:" + l.Name
	}
	return l.Kind.String()
}

// DisplayName renders the label for people, e.g. "Push-Up" or "Jumping Jacks".
func (l Label) DisplayName() string {
	switch l.Resolve() {
	case PushUp:
		return "Push-Up"
	case Squat:
		return "Squat"
	}
	if l.Kind == Manual && l.Name != "" {
		name := strings.NewReplacer("_", " ", "-", " ").Replace(l.Name)
		return title(strings.Join(strings.Fields(name), " "))
	}
	return title(l.Kind.String())
}

// Resolve maps a label onto the exercise whose rules apply. Manual names that
// match a known exercise resolve to it; other manual names resolve to Generic.
func (l Label) Resolve() Kind {
	if l.Kind != Manual {
		return l.Kind
	}
	switch normalizeName(l.Name) {
	case "pushup", "pushups", "pressup":
		return PushUp
	case "squat", "squats":
		return Squat
	default:
		return Generic
	}
}

// ParseLabel reads a label from configuration or flags. Empty and "auto"
// return ok=false so callers can classify automatically.
func ParseLabel(value string) (Label, bool) {
	trimmed := strings.TrimSpace(value)
	switch normalizeName(trimmed) {
	case "", "auto":
		return Label{}, false
	case "pushup", "pushups":
		return Label{Kind: PushUp}, true
	case "squat":
		return Label{Kind: Squat}, true
	case "generic":
		return Label{Kind: Generic}, true
	}
	return ManualLabel(trimmed), true
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
}

// Casers carry state, so each call gets its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}
