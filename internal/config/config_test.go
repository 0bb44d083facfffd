package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"phiextract/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("APK_DOWNLOAD_URL", "https://example.com/game.apk")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if cfg.Paths.OutputDir != filepath.Join(wd, "info") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Paths.SchemaPath != filepath.Join(wd, "typetree.json") {
		t.Fatalf("unexpected schema path: %q", cfg.Paths.SchemaPath)
	}
	if cfg.Source.DownloadURL != "https://example.com/game.apk" {
		t.Fatalf("expected download url from env, got %q", cfg.Source.DownloadURL)
	}
	if len(cfg.Source.Entries) != 2 {
		t.Fatalf("expected default archive entries, got %v", cfg.Source.Entries)
	}
	if got := cfg.Extraction.ExcludedCategories; len(got) != 1 || got[0] != "otherSongs" {
		t.Fatalf("unexpected excluded categories: %v", got)
	}
	if cfg.Extraction.CSVQuoting != config.QuotingLegacy {
		t.Fatalf("expected legacy quoting by default, got %q", cfg.Extraction.CSVQuoting)
	}
	if cfg.Catalog.Enabled {
		t.Fatal("expected catalog disabled by default")
	}
	if cfg.CatalogPath() != filepath.Join(cfg.Paths.OutputDir, "catalog.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}
	if cfg.Paths.LogDir != "" {
		t.Fatalf("expected no log dir by default, got %q", cfg.Paths.LogDir)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "phiextract.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Extraction struct {
			ExcludedCategories []string `toml:"excluded_categories"`
			CSVQuoting         string   `toml:"csv_quoting"`
		} `toml:"extraction"`
		Catalog struct {
			Enabled bool `toml:"enabled"`
		} `toml:"catalog"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "out")
	custom.Extraction.ExcludedCategories = []string{" otherSongs ", "sideStory", "otherSongs"}
	custom.Extraction.CSVQuoting = "STANDARD"
	custom.Catalog.Enabled = true

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %s, got %s (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.OutputDir != custom.Paths.OutputDir {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if got := cfg.Extraction.ExcludedCategories; len(got) != 2 || got[0] != "otherSongs" || got[1] != "sideStory" {
		t.Fatalf("expected trimmed, de-duplicated categories, got %v", got)
	}
	if cfg.Extraction.CSVQuoting != config.QuotingStandard {
		t.Fatalf("expected standard quoting, got %q", cfg.Extraction.CSVQuoting)
	}
	if !cfg.Catalog.Enabled {
		t.Fatal("expected catalog enabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"quoting":  "[extraction]\ncsv_quoting = \"fancy\"\n",
		"language": "[extraction]\ntitle_language = \"!!\"\n",
		"format":   "[logging]\nformat = \"xml\"\n",
		"unknown":  "[paths]\nstaging_dir = \"/tmp\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestOutputDirEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "wiki")
	t.Setenv("PHIEXTRACT_OUTPUT_DIR", target)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != target {
		t.Fatalf("expected env output dir %q, got %q", target, cfg.Paths.OutputDir)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(encoded, "output_dir") {
		t.Fatalf("expected encoded config to include output_dir, got %q", encoded)
	}
}
