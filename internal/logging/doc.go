// Package logging builds the slog loggers used by phiextract.
//
// Records render either as one console line per event or as JSON objects.
// WithContext tags a logger with the run id and stage carried by a context,
// and WarnWithContext/ErrorWithContext guarantee the event_type and
// error_hint fields that operators filter on.
package logging
