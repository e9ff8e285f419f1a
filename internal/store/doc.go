// Package store persists formcoach state in SQLite: the anonymous trial
// counter and the history of finished sessions.
//
// Schema changes are numbered migrations embedded in the binary and applied
// with golang-migrate on Open. Add a new pair of up/down files rather than
// editing an applied one.
package store
