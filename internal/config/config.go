// Package config loads the booksum client configuration. Values start from
// the package defaults, are overlaid by an optional YAML file and then by
// environment variables. Command line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/roasbeef/booksum/internal/api"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/listing"
	"gopkg.in/yaml.v3"
)

const (
	// EnvAPIURL overrides the API base URL.
	EnvAPIURL = "BOOKSUM_API_URL"

	// EnvLogLevel overrides the log level.
	EnvLogLevel = "BOOKSUM_LOG_LEVEL"

	// DefaultLogLevel is used when nothing else is set.
	DefaultLogLevel = "info"

	// DefaultMaxLogFiles is the number of rotated log files kept.
	DefaultMaxLogFiles = 3

	// DefaultMaxLogFileSizeMB is the size at which the log file rotates.
	DefaultMaxLogFileSizeMB = 10
)

// API configures the remote service client.
type API struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Poll configures job status polling.
type Poll struct {
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Cache configures the local result cache and its database.
type Cache struct {
	Capacity    int    `yaml:"capacity" validate:"min=1"`
	RecentLimit int    `yaml:"recent_limit" validate:"min=1"`
	DBPath      string `yaml:"db_path"`
}

// Listing configures the list view.
type Listing struct {
	BatchSize         int `yaml:"batch_size" validate:"min=1,max=1000"`
	PageSize          int `yaml:"page_size" validate:"min=1"`
	DetailConcurrency int `yaml:"detail_concurrency" validate:"min=0"`
}

// Log configures log output.
type Log struct {
	Level         string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Dir           string `yaml:"dir"`
	MaxFiles      int    `yaml:"max_files" validate:"min=0"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb" validate:"min=1"`
}

// Config is the full client configuration.
type Config struct {
	API     API     `yaml:"api"`
	Poll    Poll    `yaml:"poll"`
	Cache   Cache   `yaml:"cache"`
	Listing Listing `yaml:"listing"`
	Log     Log     `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	apiCfg := api.DefaultConfig()
	cacheCfg := cache.DefaultConfig()
	listCfg := listing.DefaultConfig()

	return Config{
		API: API{
			URL:     apiCfg.BaseURL,
			Timeout: apiCfg.Timeout,
		},
		Poll: Poll{
			Interval: jobs.DefaultPollInterval,
			Timeout:  jobs.DefaultPollTimeout,
		},
		Cache: Cache{
			Capacity:    cacheCfg.Capacity,
			RecentLimit: cacheCfg.RecentLimit,
		},
		Listing: Listing{
			BatchSize:         listCfg.BatchSize,
			PageSize:          listCfg.PageSize,
			DetailConcurrency: listCfg.DetailConcurrency,
		},
		Log: Log{
			Level:         DefaultLogLevel,
			MaxFiles:      DefaultMaxLogFiles,
			MaxFileSizeMB: DefaultMaxLogFileSizeMB,
		},
	}
}

// DefaultDir returns ~/.booksum.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".booksum"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.yaml"), nil
}

// Load builds the configuration. An empty path reads the default file if it
// exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w",
				path, err)
		}

	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.

	default:
		return Config{}, fmt.Errorf("read config file %s: %w", path,
			err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q "+
				"(value %v)", fe.Namespace(), fe.Tag(),
				fe.Value())
		}

		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// APIConfig returns the client settings.
func (c Config) APIConfig() api.Config {
	return api.Config{
		BaseURL: c.API.URL,
		Timeout: c.API.Timeout,
	}
}

// PollConfig returns the poller settings on the real clock.
func (c Config) PollConfig() jobs.Config {
	cfg := jobs.DefaultConfig()
	cfg.Interval = c.Poll.Interval
	cfg.Timeout = c.Poll.Timeout

	return cfg
}

// CacheConfig returns the cache bounds.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:    c.Cache.Capacity,
		RecentLimit: c.Cache.RecentLimit,
	}
}

// ListingConfig returns the materializer settings.
func (c Config) ListingConfig() listing.Config {
	return listing.Config{
		BatchSize:         c.Listing.BatchSize,
		PageSize:          c.Listing.PageSize,
		DetailConcurrency: c.Listing.DetailConcurrency,
	}
}
