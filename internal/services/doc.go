// Package services defines shared utilities consumed by the extraction stages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that let the run driver
//     classify a failure (missing input, bad archive, missing schema,
//     incomplete extraction, write error) without parsing messages.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
