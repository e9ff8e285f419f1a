// Command formcoach runs coaching sessions against a frame source and
// inspects the persisted trial counter and session history.
//
// Commands:
//   - run: start a session, print verdicts as they change, stop on timeout or Ctrl+C
//   - analyze: evaluate a single pose JSON file offline
//   - backends: list registered backends and which ones respond
//   - trial: show or reset the anonymous trial counter
//   - sessions: list recorded sessions
//   - config: create, validate, or print configuration
//   - doctor: run environment checks
package main
