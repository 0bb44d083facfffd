package extraction_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"phiextract/internal/emit"
	"phiextract/internal/extraction"
	"phiextract/internal/fetch"
	"phiextract/internal/services"
	"phiextract/internal/testsupport"
)

func assertLines(t *testing.T, path string, want []string) {
	t.Helper()
	got := testsupport.ReadLines(t, path)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s:\n got %q\nwant %q", filepath.Base(path), got, want)
	}
}

func TestRunWritesAllTables(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()))

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed() {
		t.Fatalf("report reason = %s", report.Reason)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}

	out := cfg.Paths.OutputDir
	assertLines(t, filepath.Join(out, emit.FileDifficulty), []string{
		"id,EZ,HD,IN,AT",
		"song01,1.0,3.5,7.2,9.8",
	})
	assertLines(t, filepath.Join(out, emit.FileInfo), []string{
		"id,song,composer,illustrator,charter1,charter2,charter3,charter4",
		`song01,First Song,"Composer, A",Painter,a,b,c,d`,
	})
	assertLines(t, filepath.Join(out, emit.FileSingle), []string{"A"})
	assertLines(t, filepath.Join(out, emit.FileIllustration), []string{"B"})
	assertLines(t, filepath.Join(out, emit.FileCollection), []string{"1\tX\t3"})
	assertLines(t, filepath.Join(out, emit.FileAvatar), []string{"Cat"})
	assertLines(t, filepath.Join(out, emit.FileAvatarKeys), []string{"Cat\tcat_01"})
	assertLines(t, filepath.Join(out, emit.FileTips), []string{"tip one", "tip two"})

	if len(report.Written) != 8 {
		t.Fatalf("written = %v", report.Written)
	}
	res, ok := report.Result(extraction.StageCatalog)
	if !ok || res.Status != extraction.StatusSkipped {
		t.Fatalf("catalog result = %+v", res)
	}
	for _, stage := range extraction.Stages[:len(extraction.Stages)-1] {
		res, ok := report.Result(stage)
		if !ok || res.Status != extraction.StatusOK {
			t.Fatalf("stage %s result = %+v", stage, res)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "catalog.db")); !os.IsNotExist(err) {
		t.Fatalf("catalog should not be written when disabled: %v", err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()))
	runner := extraction.New(cfg, nil)
	if _, err := runner.Run(context.Background(), ""); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, emit.FileInfo))
	if err != nil {
		t.Fatalf("read info: %v", err)
	}
	if _, err := runner.Run(context.Background(), ""); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, emit.FileInfo))
	if err != nil {
		t.Fatalf("read info: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("rerun changed output:\n%s\n%s", first, second)
	}
}

func TestRunStandardQuoting(t *testing.T) {
	g := testsupport.SampleGame()
	g.Categories[0].Songs[0].Composer = `Say "hi", A`
	cfg := testsupport.NewConfig(t, testsupport.WithGame(g), testsupport.WithQuoting("standard"))

	if _, err := extraction.New(cfg, nil).Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lines := testsupport.ReadLines(t, filepath.Join(cfg.Paths.OutputDir, emit.FileInfo))
	want := `song01,First Song,"Say ""hi"", A",Painter,a,b,c,d`
	if lines[1] != want {
		t.Fatalf("info row = %q, want %q", lines[1], want)
	}
}

func TestRunMissingSchemaWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()))
	if err := os.Remove(cfg.Paths.SchemaPath); err != nil {
		t.Fatalf("remove schema: %v", err)
	}

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if report.Reason != extraction.ReasonMissingSchema {
		t.Fatalf("reason = %s", report.Reason)
	}
	if files := testsupport.ListDir(t, cfg.Paths.OutputDir); len(files) != 0 {
		t.Fatalf("expected empty output dir, got %v", files)
	}
	res, ok := report.Result(extraction.StageEmit)
	if !ok || res.Status != extraction.StatusSkipped {
		t.Fatalf("emit result = %+v", res)
	}
}

func TestRunMissingObjectAborts(t *testing.T) {
	g := testsupport.SampleGame()
	g.Omit = []string{testsupport.ScriptTips}
	cfg := testsupport.NewConfig(t, testsupport.WithGame(g))

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if !errors.Is(err, services.ErrExtractionIncomplete) {
		t.Fatalf("expected incomplete extraction, got %v", err)
	}
	if report.Reason != extraction.ReasonIncompleteExtraction {
		t.Fatalf("reason = %s", report.Reason)
	}
	if !reflect.DeepEqual(report.Missing, []string{"TipsProvider"}) {
		t.Fatalf("missing = %v", report.Missing)
	}
	if files := testsupport.ListDir(t, cfg.Paths.OutputDir); len(files) != 0 {
		t.Fatalf("expected no output, got %v", files)
	}
}

func TestRunAllowPartialEmitsFoundTables(t *testing.T) {
	g := testsupport.SampleGame()
	g.Omit = []string{testsupport.ScriptCollections}
	cfg := testsupport.NewConfig(t, testsupport.WithGame(g), testsupport.WithAllowPartial())

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res, _ := report.Result(extraction.StageLocateObjects)
	if res.Status != extraction.StatusWarning {
		t.Fatalf("locate status = %s", res.Status)
	}
	want := []string{
		emit.FileDifficulty,
		emit.FileIllustration,
		emit.FileInfo,
		emit.FileSingle,
		emit.FileTips,
	}
	got := testsupport.ListDir(t, cfg.Paths.OutputDir)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestRunBadArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()))
	testsupport.WriteJunk(t, cfg.Source.ArchivePath, 512)

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if !errors.Is(err, services.ErrBadArchive) {
		t.Fatalf("expected bad archive, got %v", err)
	}
	if report.Reason != extraction.ReasonBadArchive {
		t.Fatalf("reason = %s", report.Reason)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	report, err := extraction.New(cfg, nil).Run(context.Background(), filepath.Join(t.TempDir(), "absent.apk"))
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
	if report.Reason != extraction.ReasonMissingInput {
		t.Fatalf("reason = %s", report.Reason)
	}
	if len(report.Results) != len(extraction.Stages) {
		t.Fatalf("expected a result per stage, got %d", len(report.Results))
	}
}

func TestRunExportsCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()), testsupport.WithCatalog())

	report, err := extraction.New(cfg, nil).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.CatalogPath != cfg.CatalogPath() {
		t.Fatalf("catalog path = %q", report.CatalogPath)
	}

	store := testsupport.MustOpenCatalog(t, cfg)
	counts, err := store.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["songs"] != 1 || counts["tips"] != 2 || counts["avatars"] != 1 || counts["collections"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	runID, err := store.Meta(context.Background(), "run_id")
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if runID != report.RunID {
		t.Fatalf("run_id = %q, want %q", runID, report.RunID)
	}
}

func TestInspectDoesNotWrite(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGame(testsupport.SampleGame()))

	ds, _, err := extraction.New(cfg, nil).Inspect(context.Background(), "")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(ds.Songs.Songs) != 1 || ds.Songs.Songs[0].ID != "song01" {
		t.Fatalf("songs = %+v", ds.Songs.Songs)
	}
	if _, err := os.Stat(cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("inspect created the output dir: %v", err)
	}
}

func TestFetchAndRun(t *testing.T) {
	apk := testsupport.WriteGame(t, t.TempDir(), testsupport.SampleGame())
	payload, err := os.ReadFile(apk)
	if err != nil {
		t.Fatalf("read apk: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	testsupport.WriteSchema(t, cfg.Paths.SchemaPath, testsupport.SampleGame())

	runner := extraction.New(cfg, nil).WithFetchOptions(fetch.Options{Client: server.Client()})
	report, err := runner.FetchAndRun(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchAndRun: %v", err)
	}
	if report.Archive.Path != cfg.DownloadPath() {
		t.Fatalf("archive = %q, want %q", report.Archive.Path, cfg.DownloadPath())
	}
	res, ok := report.Result(extraction.StageFetch)
	if !ok || res.Status != extraction.StatusOK {
		t.Fatalf("fetch result = %+v", res)
	}
	assertLines(t, filepath.Join(cfg.Paths.OutputDir, emit.FileSingle), []string{"A"})
}

func TestFetchAndRunDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	report, err := extraction.New(cfg, nil).FetchAndRun(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected download failure")
	}
	if report.Reason != extraction.ReasonDownloadFailed {
		t.Fatalf("reason = %s", report.Reason)
	}
	if len(report.Results) != 1+len(extraction.Stages) {
		t.Fatalf("results = %d", len(report.Results))
	}
}
