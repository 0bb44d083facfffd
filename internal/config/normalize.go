package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeExtraction()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("PHIEXTRACT_OUTPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SchemaPath) == "" {
		c.Paths.SchemaPath = defaultSchemaPath
	}
	if c.Paths.SchemaPath, err = expandPath(c.Paths.SchemaPath); err != nil {
		return fmt.Errorf("paths.schema_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	var err error
	if c.Source.ArchivePath, err = expandPath(strings.TrimSpace(c.Source.ArchivePath)); err != nil {
		return fmt.Errorf("source.archive_path: %w", err)
	}
	c.Source.DownloadURL = strings.TrimSpace(c.Source.DownloadURL)
	if c.Source.DownloadURL == "" {
		if value, ok := os.LookupEnv("APK_DOWNLOAD_URL"); ok {
			c.Source.DownloadURL = strings.TrimSpace(value)
		}
	}
	if c.Source.DownloadTimeout <= 0 {
		c.Source.DownloadTimeout = defaultDownloadTimeout
	}
	c.Source.DownloadName = strings.TrimSpace(c.Source.DownloadName)
	if c.Source.DownloadName == "" {
		c.Source.DownloadName = defaultDownloadName
	}
	c.Source.Entries = dedupeTrimmed(c.Source.Entries)
	if len(c.Source.Entries) == 0 {
		c.Source.Entries = DefaultEntries()
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.DeviceRoot = strings.TrimSpace(c.Discovery.DeviceRoot)
	c.Discovery.PackageName = strings.TrimSpace(c.Discovery.PackageName)
	if c.Discovery.PackageName == "" {
		c.Discovery.PackageName = defaultPackageName
	}
	c.Discovery.PMBinary = strings.TrimSpace(c.Discovery.PMBinary)
	if c.Discovery.PMBinary == "" {
		c.Discovery.PMBinary = defaultPMBinary
	}
}

func (c *Config) normalizeExtraction() {
	c.Extraction.ExcludedCategories = dedupeTrimmed(c.Extraction.ExcludedCategories)
	c.Extraction.ExcludedIllustrations = dedupeTrimmed(c.Extraction.ExcludedIllustrations)
	c.Extraction.TitleLanguage = strings.TrimSpace(c.Extraction.TitleLanguage)
	if c.Extraction.TitleLanguage == "" {
		c.Extraction.TitleLanguage = defaultTitleLanguage
	}
	c.Extraction.CSVQuoting = strings.ToLower(strings.TrimSpace(c.Extraction.CSVQuoting))
	if c.Extraction.CSVQuoting == "" {
		c.Extraction.CSVQuoting = defaultCSVQuoting
	}
}

func (c *Config) normalizeCatalog() error {
	var err error
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
