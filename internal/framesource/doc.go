// Package framesource supplies frames to the analysis loop.
//
// Producers publish into a Mailbox that keeps only the newest frame; the
// consumer always sees the latest capture and stale frames are counted as
// drops rather than queued. Providers shipped here replay an image
// directory at a fixed rate or emit blank frames for the synthetic backend.
package framesource
