package testsupport

import (
	"path/filepath"
	"testing"

	"phiextract/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "info")
	cfgVal.Paths.SchemaPath = filepath.Join(base, "typetree.json")
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Discovery.DeviceRoot = filepath.Join(base, "no-device")
	cfgVal.Catalog.Path = filepath.Join(base, "catalog.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithArchive sets the configured archive path.
func WithArchive(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.ArchivePath = path
	}
}

// WithGame writes a synthetic package and matching schema into the test
// directory and points the config at both.
func WithGame(g Game) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.ArchivePath = WriteGame(b.t, filepath.Join(b.baseDir, "apk"), g)
		WriteSchema(b.t, b.cfg.Paths.SchemaPath, g)
	}
}

// WithCatalog enables the SQLite export.
func WithCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = true
	}
}

// WithAllowPartial lets runs continue when a script object is missing.
func WithAllowPartial() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.AllowPartial = true
	}
}

// WithQuoting selects the CSV quoting mode.
func WithQuoting(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.CSVQuoting = mode
	}
}

// BaseDir returns the temp directory backing the config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SchemaPath)
}
