// Package discovery resolves the game archive path from a command-line
// argument, the configured source path, or, on an Android device, the
// installed package reported by `pm path`.
package discovery
