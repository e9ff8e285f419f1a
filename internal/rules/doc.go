// Package rules evaluates exercise-specific form rules against a feature set
// and returns exactly one verdict per frame.
//
// Rule lists are ordered and the first rule whose predicate holds wins; rule
// order is the only tie-break. Rules whose inputs are unavailable never
// match. Confidence values are fixed certainty tiers, not computed scores.
package rules
