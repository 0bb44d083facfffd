// Package extraction drives one extraction run: it resolves the archive,
// decodes and locates the game behaviours, normalizes them and writes the
// output tables and the optional catalog.
//
// Every stage reports a StageResult. A failed stage stops the run and the
// Report carries the failure Reason the CLI turns into a diagnostic.
package extraction
