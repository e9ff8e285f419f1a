// Package preflight provides readiness checks for the filesystem paths and
// external pose backends formcoach depends on.
//
// These checks run in two contexts:
//   - The runner calls RunAll before starting a session and logs failures.
//   - The CLI "formcoach doctor" command renders every result as a table.
//
// Each backend check is gated by its config toggle; disabled backends are skipped.
package preflight
