// Package main hosts the phiextract CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies the global flag
// overrides and hands each invocation to the extraction runner, the
// downloader or the preflight checks. Commands print human-readable stage
// summaries on stdout; logs go to stderr.
package main
