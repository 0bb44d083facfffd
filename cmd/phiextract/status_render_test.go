package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"phiextract/internal/extraction"
	"phiextract/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Archive", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Archive:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Archive", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPreflightLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "Output directory", Passed: true, Detail: "/tmp/info"},
		{Name: "Schema", Passed: false, Detail: "missing TipsProvider"},
	}
	lines := preflightLines(results, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] /tmp/info") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] missing TipsProvider") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "1 of 2 checks failed") {
		t.Fatalf("unexpected summary %q", lines[2])
	}
}

func TestWriteReportPartial(t *testing.T) {
	var b strings.Builder
	writeReport(&b, &extraction.Report{
		Results: []extraction.StageResult{{Stage: extraction.StageLocateObjects, Status: extraction.StatusWarning, Detail: "missing TipsProvider"}},
		Missing: []string{"TipsProvider"},
	})
	out := b.String()
	if !strings.Contains(out, "locate_objects") || !strings.Contains(out, "[WARN] partial output, missing TipsProvider") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
