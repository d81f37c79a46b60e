package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// Config represents the migration run configuration
type Config struct {
	Source    Source    `json:"source" mapstructure:"source"`
	Target    Target    `json:"target" mapstructure:"target"`
	Migration Migration `json:"migration" mapstructure:"migration"`
	Log       Log       `json:"log" mapstructure:"log"`
}

// Source represents the SQLite database being migrated from
type Source struct {
	Path string `json:"path" mapstructure:"path"`
	// Tables overrides the source table name per entity
	Tables map[string]string `json:"tables" mapstructure:"tables"`
}

// Target represents the database being migrated into
type Target struct {
	URL             string        `json:"url" mapstructure:"url"`
	SSL             bool          `json:"ssl" mapstructure:"ssl"`
	Driver          string        `json:"driver" mapstructure:"driver"`
	MaxConnections  int           `json:"max_connections" mapstructure:"max_connections"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	ConnectRetries  int           `json:"connect_retries" mapstructure:"connect_retries"`
	LogLevel        string        `json:"log_level" mapstructure:"log_level"`
}

// Migration represents how the run is carried out
type Migration struct {
	Workers    int      `json:"workers" mapstructure:"workers"`
	Entities   []string `json:"entities" mapstructure:"entities"`
	ReportFile string   `json:"report_file" mapstructure:"report_file"`
}

// Log represents logging configuration
type Log struct {
	Level string `json:"level" mapstructure:"level"`
	Debug bool   `json:"debug" mapstructure:"debug"`
	File  string `json:"file" mapstructure:"file"`
}

const maxWorkers = 64

// NewDefault returns a Config instance with default values. The target URL
// has no default and must always be supplied.
func NewDefault() *Config {
	return &Config{
		Source: Source{
			Path:   "jobika.db",
			Tables: map[string]string{},
		},
		Target: Target{
			URL:             "",
			SSL:             false,
			Driver:          "postgres",
			MaxConnections:  10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnectRetries:  3,
			LogLevel:        "silent",
		},
		Migration: Migration{
			Workers: 4,
		},
		Log: Log{
			Level: "info",
			Debug: false,
		},
	}
}

// Validate checks if the configuration is valid. Every failure is a ConfigError.
func (c *Config) Validate() error {
	// Source validation
	if strings.TrimSpace(c.Source.Path) == "" {
		return utils.WrapConfigError("source.path", "is required (set SQLITE_PATH)")
	}
	for entity, table := range c.Source.Tables {
		if !models.IsValidEntity(entity) {
			return utils.WrapConfigError("source.tables", fmt.Sprintf("unknown entity %q", entity))
		}
		if strings.TrimSpace(table) == "" {
			return utils.WrapConfigError("source.tables", fmt.Sprintf("empty table name for %s", entity))
		}
	}

	// Target validation
	if strings.TrimSpace(c.Target.URL) == "" {
		return utils.WrapConfigError("target.url", "is required (set DATABASE_URL or POSTGRES_URL)")
	}
	switch c.Target.Driver {
	case "postgres":
		if _, err := pq.ParseURL(c.Target.URL); err != nil {
			return utils.WrapConfigError("target.url", err.Error())
		}
	case "sqlite":
	default:
		return utils.WrapConfigError("target.driver", fmt.Sprintf("unsupported driver %q", c.Target.Driver))
	}
	if c.Target.MaxConnections <= 0 {
		return utils.WrapConfigError("target.max_connections", "must be greater than 0")
	}
	if c.Target.MaxIdleConns < 0 {
		return utils.WrapConfigError("target.max_idle_conns", "cannot be negative")
	}
	if c.Target.MaxIdleConns > c.Target.MaxConnections {
		return utils.WrapConfigError("target.max_idle_conns", "cannot exceed max connections")
	}
	if c.Target.ConnectRetries <= 0 {
		return utils.WrapConfigError("target.connect_retries", "must be greater than 0")
	}

	// Migration validation
	if c.Migration.Workers <= 0 || c.Migration.Workers > maxWorkers {
		return utils.WrapConfigError("migration.workers", fmt.Sprintf("must be between 1 and %d", maxWorkers))
	}
	if _, err := models.OrderEntities(c.Migration.Entities); err != nil {
		return utils.WrapConfigError("migration.entities", err.Error())
	}

	// Log validation
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return utils.WrapConfigError("log.level", fmt.Sprintf("invalid log level: %s", c.Log.Level))
	}

	return nil
}

// TargetDSN returns the target connection string with the TLS toggle applied.
// An sslmode already present in the URL wins over the toggle.
func (c *Config) TargetDSN() (string, error) {
	if c.Target.Driver == "sqlite" {
		return c.Target.URL, nil
	}

	u, err := url.Parse(c.Target.URL)
	if err != nil {
		return "", utils.WrapConfigError("target.url", err.Error())
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", utils.WrapConfigError("target.url", "must start with postgres:// or postgresql://")
	}

	params := u.Query()
	if params.Get("sslmode") == "" {
		if c.Target.SSL {
			// Encrypt without verifying the server certificate
			params.Set("sslmode", "require")
		} else {
			params.Set("sslmode", "disable")
		}
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// RedactedTargetURL returns the target URL without its password, for logs
func (c *Config) RedactedTargetURL() string {
	u, err := url.Parse(c.Target.URL)
	if err != nil || u.User == nil {
		return c.Target.URL
	}
	return u.Redacted()
}
