package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jobika/jobika-migrate/internal/utils"
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithOverrides(configPath, nil)
}

// LoadConfigWithOverrides loads configuration like LoadConfig, then applies
// overrides (keyed like "target.url") before validation. Command-line flags
// arrive here.
func LoadConfigWithOverrides(configPath string, overrides map[string]interface{}) (*Config, error) {
	// A .env file next to the process is optional; it never overrides real env vars
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, utils.WrapConfigError("", fmt.Sprintf("error reading .env file: %v", err))
	}

	v := viper.New()

	v.SetConfigType("yaml")
	v.SetConfigName("migrate")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/jobika-migrate")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jobika-migrate"))
		}
	}

	// Set defaults (these will be overridden by config file and env vars)
	setDefaults(v)

	v.SetEnvPrefix("JOBIKA_MIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file doesn't exist, we have defaults and env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.WrapConfigError("", fmt.Sprintf("error reading config file: %v", err))
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, utils.WrapConfigError("", fmt.Sprintf("unable to decode config: %v", err))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := NewDefault()

	// Source defaults
	v.SetDefault("source.path", d.Source.Path)
	v.SetDefault("source.tables", map[string]string{})

	// Target defaults
	v.SetDefault("target.url", "")
	v.SetDefault("target.ssl", d.Target.SSL)
	v.SetDefault("target.driver", d.Target.Driver)
	v.SetDefault("target.max_connections", d.Target.MaxConnections)
	v.SetDefault("target.max_idle_conns", d.Target.MaxIdleConns)
	v.SetDefault("target.conn_max_lifetime", "30m")
	v.SetDefault("target.conn_max_idle_time", "5m")
	v.SetDefault("target.connect_retries", d.Target.ConnectRetries)
	v.SetDefault("target.log_level", d.Target.LogLevel)

	// Migration defaults
	v.SetDefault("migration.workers", d.Migration.Workers)
	v.SetDefault("migration.entities", []string{})
	v.SetDefault("migration.report_file", "")

	// Log defaults
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.file", "")
}

// bindEnvVars binds the environment variables the JoBika deployment already uses
func bindEnvVars(v *viper.Viper) {
	// Source database can be set via SQLITE_PATH or JOBIKA_MIGRATE_SOURCE_PATH
	v.BindEnv("source.path", "SQLITE_PATH", "JOBIKA_MIGRATE_SOURCE_PATH")

	// Target URL can be set via DATABASE_URL, POSTGRES_URL or JOBIKA_MIGRATE_TARGET_URL
	v.BindEnv("target.url", "DATABASE_URL", "POSTGRES_URL", "JOBIKA_MIGRATE_TARGET_URL")

	// TLS toggle can be set via DATABASE_SSL or JOBIKA_MIGRATE_TARGET_SSL
	v.BindEnv("target.ssl", "DATABASE_SSL", "JOBIKA_MIGRATE_TARGET_SSL")

	// Log level can be set via LOG_LEVEL or JOBIKA_MIGRATE_LOG_LEVEL
	v.BindEnv("log.level", "LOG_LEVEL", "JOBIKA_MIGRATE_LOG_LEVEL")

	// Debug mode
	v.BindEnv("log.debug", "DEBUG", "JOBIKA_MIGRATE_LOG_DEBUG")
}
