// Package engine runs the live feedback loop for one session at a time.
//
// Start walks the session through Idle → Starting → Running: it consults the
// access gate, makes sure a pose backend is ready, acquires the frame
// source, consumes a trial session, and launches the loop goroutine. Each
// loop cycle waits for one Refresher tick, estimates a pose for the current
// frame, analyzes it, and publishes the verdict to the stats aggregator,
// subscribers, and the overlay Renderer. Stop is synchronous and idempotent.
//
// Every session carries a generation number. Results computed for an older
// generation are dropped, so a slow estimate can never publish into the
// next session.
package engine
