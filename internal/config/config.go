// ABOUTME: Configuration loading and parsing for companion-syncd
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete companion-syncd configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
	Remote  RemoteConfig  `yaml:"remote"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	// Path is the SQLite database file for the primary medium
	Path string `yaml:"path"`
	// FallbackDir is the directory for the JSON-file fallback medium
	FallbackDir string `yaml:"fallback_dir"`
}

// SyncConfig holds sync engine timing configuration
type SyncConfig struct {
	Debounce    time.Duration `yaml:"-"`
	MinInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	DebounceRaw    string `yaml:"debounce"`
	MinIntervalRaw string `yaml:"min_interval"`
}

// RemoteConfig holds backend connection configuration
type RemoteConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in the standard sync timing when unset.
func (c *Config) applyDefaults() {
	if c.Sync.Debounce == 0 {
		c.Sync.Debounce = time.Second
	}
	if c.Sync.MinInterval == 0 {
		c.Sync.MinInterval = 3 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.Remote.APIKey == "" {
		return fmt.Errorf("remote.api_key is required")
	}

	if c.Sync.Debounce < 0 {
		return fmt.Errorf("sync.debounce must not be negative")
	}
	if c.Sync.MinInterval < 0 {
		return fmt.Errorf("sync.min_interval must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Sync.DebounceRaw != "" {
		cfg.Sync.Debounce, err = time.ParseDuration(cfg.Sync.DebounceRaw)
		if err != nil {
			return fmt.Errorf("parsing debounce %q: %w", cfg.Sync.DebounceRaw, err)
		}
	}

	if cfg.Sync.MinIntervalRaw != "" {
		cfg.Sync.MinInterval, err = time.ParseDuration(cfg.Sync.MinIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing min_interval %q: %w", cfg.Sync.MinIntervalRaw, err)
		}
	}

	return nil
}
