// Package config loads, normalizes, and validates phiextract configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// APK_DOWNLOAD_URL and PHIEXTRACT_OUTPUT_DIR. Every stage receives its output
// directory and schema location from here rather than from the process
// working directory.
package config
