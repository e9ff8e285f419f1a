// Package features turns a canonical pose into the geometric measurements the
// classifier and form rules consume.
//
// Keypoints below the configured confidence floor are treated as absent
// before anything is computed. Every measurement carries an OK flag so rules
// can skip themselves when their inputs are missing instead of reasoning about
// noise.
package features
