// Package preflight provides readiness checks for the paths and binaries
// clipfeed depends on.
//
// The feed and audit commands verify the decode binaries before starting so
// a doomed configuration fails up front instead of hours into an epoch; the
// CLI status command renders the full path and dependency results for
// inspection.
package preflight
