package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSource() error {
	if c.Source.DownloadTimeout <= 0 {
		return errors.New("source.download_timeout must be positive")
	}
	if len(c.Source.Entries) == 0 {
		return errors.New("source.entries must list at least one archive entry")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	switch c.Extraction.CSVQuoting {
	case QuotingLegacy, QuotingStandard:
	default:
		return fmt.Errorf("extraction.csv_quoting: unsupported value %q (use %q or %q)", c.Extraction.CSVQuoting, QuotingLegacy, QuotingStandard)
	}
	if _, err := language.Parse(c.Extraction.TitleLanguage); err != nil {
		return fmt.Errorf("extraction.title_language: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
