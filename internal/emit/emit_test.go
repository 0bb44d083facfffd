package emit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"phiextract/internal/services"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestEmitLegacyQuotesCommaFields(t *testing.T) {
	dir := t.TempDir()
	table := Table{
		File:   FileInfo,
		Header: []string{"id", "song", "composer"},
		Rows: [][]string{
			{"a", "Hello, World", `Say "hi", ok`},
			{"b", "Plain", ""},
		},
		Format: CSV,
	}
	if err := Emit(dir, table); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := "id,song,composer\n" +
		"a,\"Hello, World\",\"Say \"hi\", ok\"\n" +
		"b,Plain,\n"
	if got := readFile(t, filepath.Join(dir, FileInfo)); got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestEmitStandardEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	table := Table{
		File:   FileInfo,
		Header: []string{"id", "song"},
		Rows:   [][]string{{"a", `Say "hi", ok`}},
		Format: Format{Delimiter: ',', Quote: QuoteStandard},
	}
	if err := Emit(dir, table); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	want := "id,song\na,\"Say \"\"hi\"\", ok\"\n"
	if got := readFile(t, filepath.Join(dir, FileInfo)); got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestEmitTSVAndListsDoNotQuote(t *testing.T) {
	dir := t.TempDir()
	if err := Emit(dir, Table{File: FileCollection, Rows: [][]string{{"k", "a, b", "3"}}, Format: TSV}); err != nil {
		t.Fatalf("Emit tsv: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, FileCollection)); got != "k\ta, b\t3\n" {
		t.Fatalf("tsv content = %q", got)
	}

	if err := Emit(dir, List(FileTips, []string{"one, two", "three"})); err != nil {
		t.Fatalf("Emit list: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, FileTips)); got != "one, two\nthree\n" {
		t.Fatalf("list content = %q", got)
	}
}

func TestEmitTruncatesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileSingle)
	if err := os.WriteFile(path, []byte("stale content that is longer\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := Emit(dir, List(FileSingle, []string{"A"})); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got := readFile(t, path); got != "A\n" {
		t.Fatalf("content = %q, want %q", got, "A\n")
	}

	if err := Emit(dir, List(FileSingle, nil)); err != nil {
		t.Fatalf("Emit empty: %v", err)
	}
	if got := readFile(t, path); got != "" {
		t.Fatalf("content = %q, want empty", got)
	}
}

func TestEmitReportsWriteError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	err := Emit(dir, List(FileTips, []string{"x"}))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !errors.Is(err, services.ErrWrite) {
		t.Fatalf("expected ErrWrite marker, got %v", err)
	}
}

func TestParseQuote(t *testing.T) {
	cases := []struct {
		in   string
		want Quote
	}{
		{"", QuoteLegacy},
		{"legacy", QuoteLegacy},
		{" Standard ", QuoteStandard},
		{"none", QuoteNone},
	}
	for _, tc := range cases {
		got, err := ParseQuote(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("ParseQuote(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseQuote("rfc"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
