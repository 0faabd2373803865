// Package config loads pdfbatch settings from defaults, an optional YAML
// file, PDFBATCH_ environment variables and command-line flags.
//
// Precedence, highest first:
//  1. Flags (--log-level debug)
//  2. Environment (PDFBATCH_LOG_LEVEL=debug)
//  3. Config file
//  4. Defaults
//
// Environment names map the first underscore after the prefix to a dot:
//
//	PDFBATCH_BATCH_MAX_RETRIES -> batch.max_retries
//	PDFBATCH_STORAGE_DSN       -> storage.dsn
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/security"
	"github.com/jdziat/pdfbatch/pkg/storage"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "PDFBATCH_"

// Config is the merged application configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Storage StorageConfig `koanf:"storage"`
	Batch   BatchConfig   `koanf:"batch"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageConfig selects the history database.
type StorageConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  string `koanf:"driver"`
	DSN     string `koanf:"dsn"`
}

// BatchConfig holds defaults applied to submitted jobs.
type BatchConfig struct {
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`
	OutputDir  string        `koanf:"output_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Enabled: true, Driver: storage.DriverSQLite, DSN: "pdfbatch.db"},
		Batch:   BatchConfig{MaxRetries: core.DefaultMaxRetries, RetryDelay: 0, OutputDir: "."},
	}
}

func defaultMap() map[string]any {
	def := Default()
	return map[string]any{
		"log.level":         def.Log.Level,
		"log.format":        def.Log.Format,
		"storage.enabled":   def.Storage.Enabled,
		"storage.driver":    def.Storage.Driver,
		"storage.dsn":       def.Storage.DSN,
		"batch.max_retries": def.Batch.MaxRetries,
		"batch.retry_delay": def.Batch.RetryDelay.String(),
		"batch.output_dir":  def.Batch.OutputDir,
	}
}

// flagKeys maps flag names registered by BindFlags to configuration keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"no-storage":  "storage.enabled",
	"db-driver":   "storage.driver",
	"db":          "storage.dsn",
	"max-retries": "batch.max_retries",
	"retry-delay": "batch.retry_delay",
	"output-dir":  "batch.output_dir",
}

// BindFlags registers the configuration flags on flags.
func BindFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log-format", def.Log.Format, "Log format (text, json)")
	flags.Bool("no-storage", false, "Do not record job history")
	flags.String("db-driver", def.Storage.Driver, "History database driver (sqlite, postgres)")
	flags.String("db", def.Storage.DSN, "History database path or DSN")
	flags.Int("max-retries", def.Batch.MaxRetries, "Default retry budget per job")
	flags.Duration("retry-delay", def.Batch.RetryDelay, "Pause before a failed job is retried")
	flags.String("output-dir", def.Batch.OutputDir, "Default output directory")
}

// Load merges every source into a Config. path may be empty; flags may be nil.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagValue(flags)), nil); err != nil {
			return Config{}, fmt.Errorf("config: flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	cfg.Batch.MaxRetries = security.ClampRetries(cfg.Batch.MaxRetries)
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

func flagValue(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		// Only explicit flags override; defaults already come from defaultMap.
		if !f.Changed {
			return "", nil
		}
		val := posflag.FlagVal(flags, f)
		if f.Name == "no-storage" {
			if b, ok := val.(bool); ok {
				val = !b
			}
		}
		return key, val
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case storage.DriverSQLite, "sqlite3", storage.DriverPostgres, "postgresql", "pg":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: %w: %q", storage.ErrUnknownDriver, c.Storage.Driver))
	}
	if c.Storage.Enabled && c.Storage.DSN == "" && strings.HasPrefix(c.Storage.Driver, "p") {
		errs = append(errs, errors.New("storage.dsn: required for postgres"))
	}
	if c.Batch.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("batch.max_retries: must not be negative, got %d", c.Batch.MaxRetries))
	}
	if c.Batch.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("batch.retry_delay: must not be negative, got %s", c.Batch.RetryDelay))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
