// Package runner assembles a coaching engine from configuration and drives
// one session at a time against it.
//
// Build wires the SQLite store, the trial gate, the backend registry, the
// frame source, and the notification sinks. Run holds an exclusive file lock
// on the frame source for the duration of a session so two processes never
// read the same camera concurrently.
package runner
