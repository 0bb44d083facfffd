// Package normalize turns typed game records into output rows. Every
// function is pure and tolerates nil input by returning empty results.
package normalize
