package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	SchemaPath string `toml:"schema_path"`
	WorkDir    string `toml:"work_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source describes where the game archive comes from.
type Source struct {
	ArchivePath     string   `toml:"archive_path"`
	DownloadURL     string   `toml:"download_url"`
	DownloadTimeout int      `toml:"download_timeout"`
	DownloadName    string   `toml:"download_name"`
	Entries         []string `toml:"entries"`
}

// Discovery contains settings for locating the installed package on a device.
type Discovery struct {
	DeviceRoot  string `toml:"device_root"`
	PackageName string `toml:"package_name"`
	PMBinary    string `toml:"pm_binary"`
}

// Extraction contains record normalization and output formatting settings.
type Extraction struct {
	ExcludedCategories    []string `toml:"excluded_categories"`
	ExcludedIllustrations []string `toml:"excluded_illustrations"`
	TitleLanguage         string   `toml:"title_language"`
	CSVQuoting            string   `toml:"csv_quoting"`
	AllowPartial          bool     `toml:"allow_partial"`
}

// Catalog contains configuration for the optional SQLite export.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for phiextract.
//
// Configuration sections by subsystem:
//   - Paths: output, schema, download and log locations
//   - Source: archive path, download URL and the archive entries to decode
//   - Discovery: on-device package lookup
//   - Extraction: normalization and quoting rules
//   - Catalog: SQLite export
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Source     Source     `toml:"source"`
	Discovery  Discovery  `toml:"discovery"`
	Extraction Extraction `toml:"extraction"`
	Catalog    Catalog    `toml:"catalog"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("phiextract.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CatalogPath returns the SQLite export location, defaulting to a file inside
// the output directory.
func (c *Config) CatalogPath() string {
	if path := strings.TrimSpace(c.Catalog.Path); path != "" {
		return path
	}
	return filepath.Join(c.Paths.OutputDir, defaultCatalogFile)
}

// DownloadPath returns where fetched archives are stored.
func (c *Config) DownloadPath() string {
	return filepath.Join(c.Paths.WorkDir, c.Source.DownloadName)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
