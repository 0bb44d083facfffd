// Package fetch downloads the game archive over HTTP with sampled progress
// logging. There are no retries; a failed transfer removes its partial file.
package fetch
