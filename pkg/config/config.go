// Package config loads runtime settings from the environment, an optional
// .env file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "ECOQUEST"

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Ledger LedgerConfig
	Verify VerifyConfig
	App    AppConfig
}

type LedgerConfig struct {
	Backend  string
	Key      string
	Capacity int
}

type VerifyConfig struct {
	Policy      string
	ExifDecoder string
	Timeout     time.Duration
	Timezone    string
}

type AppConfig struct {
	DataDir  string
	DBPath   string
	LogLevel string
}

// Load reads envFiles (missing files are skipped) and then the ECOQUEST_*
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)

	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LEDGER_BACKEND", BackendFile)
	v.SetDefault("LEDGER_KEY", "ecoquest_photo_hashes")
	v.SetDefault("LEDGER_CAPACITY", 1000)
	v.SetDefault("POLICY", "permissive")
	v.SetDefault("EXIF_DECODER", "auto")
	v.SetDefault("VERIFY_TIMEOUT", "30s")
	v.SetDefault("TIMEZONE", "Local")

	v.AutomaticEnv()

	cfg := &Config{
		Ledger: LedgerConfig{
			Backend:  v.GetString("LEDGER_BACKEND"),
			Key:      v.GetString("LEDGER_KEY"),
			Capacity: v.GetInt("LEDGER_CAPACITY"),
		},
		Verify: VerifyConfig{
			Policy:      v.GetString("POLICY"),
			ExifDecoder: v.GetString("EXIF_DECODER"),
			Timeout:     v.GetDuration("VERIFY_TIMEOUT"),
			Timezone:    v.GetString("TIMEZONE"),
		},
		App: AppConfig{
			DataDir:  v.GetString("DATA_DIR"),
			DBPath:   v.GetString("DB_PATH"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
	}
	if cfg.App.DBPath == "" {
		cfg.App.DBPath = filepath.Join(cfg.App.DataDir, "ecoquest.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Ledger.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}
	if c.Ledger.Capacity <= 0 {
		return fmt.Errorf("ledger capacity must be positive, got %d", c.Ledger.Capacity)
	}
	if c.Verify.Timeout < 0 {
		return fmt.Errorf("verify timeout must not be negative, got %s", c.Verify.Timeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone capture timestamps are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Verify.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Verify.Timezone, err)
	}
	return loc, nil
}

// EnsureDirs creates the data directory and the database's parent directory.
func (c *Config) EnsureDirs() error {
	dirs := []string{c.App.DataDir, filepath.Dir(c.App.DBPath)}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
