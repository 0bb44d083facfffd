package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteJunk fills path with size bytes that are neither a zip nor an asset
// file. A size <= 0 writes a single byte.
func WriteJunk(t testing.TB, path string, size int) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadLines returns the newline-terminated lines of path. It fails the test
// when the file does not end with a newline.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	text := string(data)
	if !strings.HasSuffix(text, "\n") {
		t.Fatalf("%s does not end with a newline: %q", path, text)
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// ListDir returns the names of entries in dir, or nil when it does not exist.
func ListDir(t testing.TB, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
