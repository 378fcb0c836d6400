// ABOUTME: Runtime settings from .env, the environment, and an optional config file
// ABOUTME: Environment wins over config.yaml; tunables are clamped to safe ranges
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/harperreed/contactsync/db"
	"github.com/harperreed/contactsync/google"
	"github.com/harperreed/contactsync/sync"
)

// Keys.
const (
	KeyNotionToken        = "TOKEN_V3"
	KeyNotionTokenAlias   = "NOTION_TOKEN"
	KeyDatabaseID         = "DATABASE_ID"
	KeyGoogleClientID     = "GOOGLE_CLIENT_ID"
	KeyGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	KeyGoogleRefreshToken = "GOOGLE_REFRESH_TOKEN"
	KeyExcludeLabel       = "CONTACTSYNC_EXCLUDE_LABEL"
	KeyWorkers            = "CONTACTSYNC_WORKERS"
	KeyNotionRPS          = "CONTACTSYNC_NOTION_RPS"
	KeyDBPath             = "CONTACTSYNC_DB_PATH"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
)

const (
	DefaultExcludeLabel = "nosync"
	DefaultNotionRPS    = 3.0
)

// Config is the resolved configuration.
type Config struct {
	NotionToken        string
	DatabaseID         string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	ExcludeLabel       string
	Workers            int
	NotionRPS          float64
	DBPath             string
	TokenPath          string
	LogLevel           string
	LogFormat          string
}

// ConfigError names the required keys that are missing.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Dir is where config.yaml is looked up.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "contactsync")
}

// Options control where Load reads from.
type Options struct {
	// EnvFile is loaded into the process environment first. Missing is fine.
	EnvFile string
	// ConfigFile overrides the config.yaml lookup.
	ConfigFile string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetDefault(KeyExcludeLabel, DefaultExcludeLabel)
	v.SetDefault(KeyWorkers, sync.DefaultWorkers)
	v.SetDefault(KeyNotionRPS, DefaultNotionRPS)
	v.SetDefault(KeyDBPath, db.DefaultPath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")

	for _, key := range []string{
		KeyNotionToken, KeyNotionTokenAlias, KeyDatabaseID,
		KeyGoogleClientID, KeyGoogleClientSecret, KeyGoogleRefreshToken,
		KeyExcludeLabel, KeyWorkers, KeyNotionRPS, KeyDBPath, KeyLogLevel, KeyLogFormat,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.ConfigFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		NotionToken:        v.GetString(KeyNotionToken),
		DatabaseID:         v.GetString(KeyDatabaseID),
		GoogleClientID:     v.GetString(KeyGoogleClientID),
		GoogleClientSecret: v.GetString(KeyGoogleClientSecret),
		GoogleRefreshToken: v.GetString(KeyGoogleRefreshToken),
		ExcludeLabel:       strings.TrimSpace(v.GetString(KeyExcludeLabel)),
		Workers:            clampWorkers(v.GetInt(KeyWorkers)),
		NotionRPS:          v.GetFloat64(KeyNotionRPS),
		DBPath:             v.GetString(KeyDBPath),
		TokenPath:          google.TokenPath(),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
	}
	if cfg.NotionToken == "" {
		cfg.NotionToken = v.GetString(KeyNotionTokenAlias)
	}
	if cfg.NotionRPS <= 0 {
		cfg.NotionRPS = DefaultNotionRPS
	}

	return cfg, nil
}

func clampWorkers(n int) int {
	return max(1, min(n, sync.MaxWorkers))
}

// ValidateNotion checks the keys every Notion command needs.
func (c *Config) ValidateNotion() error {
	var missing []string
	if c.NotionToken == "" {
		missing = append(missing, KeyNotionToken)
	}
	if c.DatabaseID == "" {
		missing = append(missing, KeyDatabaseID)
	}
	return asConfigError(missing)
}

// ValidateGoogle checks the OAuth client keys.
func (c *Config) ValidateGoogle() error {
	var missing []string
	if c.GoogleClientID == "" {
		missing = append(missing, KeyGoogleClientID)
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, KeyGoogleClientSecret)
	}
	return asConfigError(missing)
}

// Validate checks everything a sync run needs.
func (c *Config) Validate() error {
	var missing []string
	for _, err := range []error{c.ValidateNotion(), c.ValidateGoogle()} {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			missing = append(missing, cfgErr.Missing...)
		}
	}
	return asConfigError(missing)
}

func asConfigError(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return &ConfigError{Missing: missing}
}
