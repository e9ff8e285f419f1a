// Package notifications delivers user-facing notices such as backend
// fallbacks, missing cameras, or session summaries.
//
// Sinks are fire-and-forget: Push never blocks the caller and delivery
// failures are only logged. When an ntfy topic is configured notices are
// posted there; otherwise they are dropped or mirrored to the log.
package notifications
