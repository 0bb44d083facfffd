package preflight

import (
	"context"
	"os"

	"phiextract/internal/config"
	"phiextract/internal/locator"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Output directory (always checked)
	results = append(results, CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir))

	// Schema file (always checked)
	results = append(results, CheckSchema(cfg.Paths.SchemaPath, locator.Scripts()))

	// Configured archive
	if cfg.Source.ArchivePath != "" {
		results = append(results, CheckArchiveFile(cfg.Source.ArchivePath))
	}

	// Package manager, only meaningful on a device
	if info, err := os.Stat(cfg.Discovery.DeviceRoot); err == nil && info.IsDir() && cfg.Source.ArchivePath == "" {
		results = append(results, CheckBinary("Package manager", cfg.Discovery.PMBinary))
	}

	// Download source
	if cfg.Source.DownloadURL != "" {
		results = append(results, CheckDownloadURL(ctx, cfg.Source.DownloadURL))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
