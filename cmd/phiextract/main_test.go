package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"phiextract/internal/emit"
	"phiextract/internal/testsupport"
)

func TestExtractCommandWritesTables(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGame(testsupport.SampleGame()))

	out, _, err := runCLI(t, []string{"extract"}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "locate_objects")
	requireContains(t, out, "8 files written")

	lines := testsupport.ReadLines(t, filepath.Join(env.cfg.Paths.OutputDir, emit.FileDifficulty))
	if len(lines) != 2 || lines[1] != "song01,1.0,3.5,7.2,9.8" {
		t.Fatalf("difficulty.csv = %q", lines)
	}
}

func TestExtractCommandFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	apk := testsupport.WriteGame(t, filepath.Join(env.baseDir, "elsewhere"), testsupport.SampleGame())
	schemaPath := filepath.Join(env.baseDir, "custom-schema.json")
	testsupport.WriteSchema(t, schemaPath, testsupport.SampleGame())
	output := filepath.Join(env.baseDir, "custom-out")

	_, _, err := runCLI(t, []string{"--output", output, "--schema", schemaPath, "extract", apk}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, emit.FileInfo)); err != nil {
		t.Fatalf("expected info.csv in overridden output: %v", err)
	}
	if files := testsupport.ListDir(t, env.cfg.Paths.OutputDir); len(files) != 0 {
		t.Fatalf("configured output dir should be untouched, got %v", files)
	}
}

func TestExtractCommandMissingSchemaFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGame(testsupport.SampleGame()))

	out, _, err := runCLI(t, []string{"--schema", filepath.Join(env.baseDir, "absent.json"), "extract"}, env.configPath)
	if err == nil {
		t.Fatal("expected extract to fail without a schema")
	}
	requireContains(t, out, "MissingSchema")
	if files := testsupport.ListDir(t, env.cfg.Paths.OutputDir); len(files) != 0 {
		t.Fatalf("expected no output files, got %v", files)
	}
}

func TestExtractCommandRejectsBadLogLevel(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGame(testsupport.SampleGame()))

	_, _, err := runCLI(t, []string{"--log-level", "loud", "extract"}, env.configPath)
	if err == nil {
		t.Fatal("expected invalid log level to fail")
	}
	requireContains(t, err.Error(), "logging.level")
}

func TestInspectSongs(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGame(testsupport.SampleGame()))

	out, _, err := runCLI(t, []string{"inspect", "songs"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect songs: %v", err)
	}
	requireContains(t, out, "song01")
	requireContains(t, out, "First Song")
	requireContains(t, out, "9.8")
	if _, err := os.Stat(env.cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("inspect should not create the output dir: %v", err)
	}
}

func TestInspectKeysJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithGame(testsupport.SampleGame()))

	out, _, err := runCLI(t, []string{"inspect", "keys", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect keys: %v", err)
	}
	var records []map[string]string
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(records) != 2 {
		t.Fatalf("records = %v", records)
	}
	if records[0]["kind"] != "single" || records[0]["name"] != "A" {
		t.Fatalf("first record = %v", records[0])
	}
	if records[1]["kind"] != "illustration" || records[1]["name"] != "B" {
		t.Fatalf("second record = %v", records[1])
	}
}

func TestInspectMissingSource(t *testing.T) {
	g := testsupport.SampleGame()
	g.Omit = []string{testsupport.ScriptCollections}
	env := setupCLITestEnv(t, testsupport.WithGame(g))

	if _, _, err := runCLI(t, []string{"inspect", "tips"}, env.configPath); err != nil {
		t.Fatalf("inspect tips should work without collections: %v", err)
	}
	_, _, err := runCLI(t, []string{"inspect", "avatars"}, env.configPath)
	if err == nil {
		t.Fatal("expected inspect avatars to fail")
	}
	requireContains(t, err.Error(), "GetCollectionControl not found")
}

func TestFetchCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("apk-bytes"))
	}))
	defer server.Close()
	dest := filepath.Join(env.baseDir, "dl", "game.apk")

	out, _, err := runCLI(t, []string{"fetch", "--url", server.URL, "--dest", dest}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Download")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "apk-bytes" {
		t.Fatalf("download content = %q", data)
	}
}

func TestFetchCommandRequiresURL(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"fetch"}, env.configPath)
	if err == nil {
		t.Fatal("expected fetch without a url to fail")
	}
	requireContains(t, err.Error(), "download url")
}

func TestRunCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteSchema(t, env.cfg.Paths.SchemaPath, testsupport.SampleGame())
	apk := testsupport.WriteGame(t, t.TempDir(), testsupport.SampleGame())
	payload, err := os.ReadFile(apk)
	if err != nil {
		t.Fatalf("read apk: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	out, _, err := runCLI(t, []string{"run", "--url", server.URL}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "fetch")
	requireContains(t, out, "8 files written")
	if _, err := os.Stat(env.cfg.DownloadPath()); err != nil {
		t.Fatalf("expected downloaded archive: %v", err)
	}
}
