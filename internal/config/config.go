// Package config loads worktrack settings from a YAML file, the environment,
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/baiirun/worktrack/internal/db"
)

// EnvPrefix namespaces environment overrides, e.g. WORKTRACK_DB_PATH.
const EnvPrefix = "WORKTRACK"

// DevSessionSecret signs sessions when no secret is configured.
const DevSessionSecret = "worktrack-dev-secret"

type Config struct {
	DBPath        string   `mapstructure:"db_path"`
	LogLevel      string   `mapstructure:"log_level"`
	SessionSecret string   `mapstructure:"session_secret"`
	Assignees     []string `mapstructure:"assignees"`
}

// Load reads configuration. configPath may be empty, in which case
// ~/.worktrack/config.yaml is used if it exists. A .env file in the working
// directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	dbPath, err := db.DefaultPath()
	if err != nil {
		return nil, err
	}
	v.SetDefault("db_path", dbPath)
	v.SetDefault("log_level", "warn")
	v.SetDefault("session_secret", DevSessionSecret)
	v.SetDefault("assignees", []string{"John Doe", "Jane Smith", "Mike Johnson"})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".worktrack"))
		}
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
