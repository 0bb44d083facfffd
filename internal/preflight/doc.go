// Package preflight provides readiness checks for the filesystem paths,
// schema file, binaries and download source that phiextract depends on.
//
// The CLI "config validate" command runs RunAll and renders the results.
// Each check is gated by its config value; unconfigured features are skipped.
package preflight
