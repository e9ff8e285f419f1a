// Package backend defines the pose-estimation backend contract and the
// registry that selects one at runtime.
//
// A Registry owns an ordered list of candidate backends plus exactly one
// Fallback. Fallbacks cannot fail, so once a registry exists some backend can
// always produce output. Selecting a candidate that fails to initialize logs
// the reason, pushes a notice, and re-selects the fallback.
//
// Backends shipped here:
//   - subprocess: an external worker speaking JSON lines on stdin/stdout
//   - http: a remote pose server
//   - synthetic: deterministic push-up motion, flagged as synthetic
package backend
