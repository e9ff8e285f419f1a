// Package classify guesses which exercise a pose shows using an ordered,
// first-match-wins list of heuristics.
//
// Classification is pure: the same feature set always yields the same label.
// Callers may pin a label; the automatic guess is still reported alongside it
// for diagnostics.
package classify
