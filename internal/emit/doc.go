// Package emit writes normalized rows as delimited UTF-8 text files.
//
// Files are truncated on open and written in full; a failure partway leaves
// whatever was written. Errors carry the services.ErrWrite marker.
package emit
