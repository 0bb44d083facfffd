package config

const (
	defaultConfigPath      = "~/.config/phiextract/config.toml"
	defaultOutputDir       = "info"
	defaultSchemaPath      = "typetree.json"
	defaultWorkDir         = "."
	defaultLogDir          = ""
	defaultDownloadTimeout = 600
	defaultDownloadName    = "phigros_latest.apk"
	defaultDeviceRoot      = "/data/"
	defaultPackageName     = "com.PigeonGames.Phigros"
	defaultPMBinary        = "pm"
	defaultTitleLanguage   = "zh"
	defaultCSVQuoting      = QuotingLegacy
	defaultCatalogFile     = "catalog.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// CSV quoting modes.
const (
	// QuotingLegacy wraps comma-containing fields in double quotes without
	// escaping embedded quotes, matching the files existing consumers read.
	QuotingLegacy = "legacy"
	// QuotingStandard applies RFC 4180 quoting.
	QuotingStandard = "standard"
)

// DefaultEntries lists the archive entries holding the serialized game objects.
func DefaultEntries() []string {
	return []string{
		"assets/bin/Data/globalgamemanagers.assets",
		"assets/bin/Data/level0",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			SchemaPath: defaultSchemaPath,
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
		},
		Source: Source{
			DownloadTimeout: defaultDownloadTimeout,
			DownloadName:    defaultDownloadName,
			Entries:         DefaultEntries(),
		},
		Discovery: Discovery{
			DeviceRoot:  defaultDeviceRoot,
			PackageName: defaultPackageName,
			PMBinary:    defaultPMBinary,
		},
		Extraction: Extraction{
			ExcludedCategories:    []string{"otherSongs"},
			ExcludedIllustrations: []string{"Introduction"},
			TitleLanguage:         defaultTitleLanguage,
			CSVQuoting:            defaultCSVQuoting,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
