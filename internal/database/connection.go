package database

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jobika/jobika-migrate/internal/utils"
)

// Supported target drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// TargetConfig holds everything needed to open the target store
type TargetConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectRetries  int
	RetryDelay      time.Duration
	LogLevel        string
}

// Target manages the connection to the store being migrated into
type Target struct {
	db     *gorm.DB
	logger zerolog.Logger
	mu     sync.RWMutex
}

// NewTarget wraps an already opened connection
func NewTarget(db *gorm.DB, logger zerolog.Logger) *Target {
	return &Target{
		db:     db,
		logger: logger,
	}
}

// OpenTarget connects to the target store with retry logic and confirms the
// connection with a round-trip query before returning. Every failure is a
// ConnectionError.
func OpenTarget(ctx context.Context, cfg TargetConfig, log zerolog.Logger) (*Target, error) {
	dialector, err := openDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, utils.WrapConnectionError("target", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(getLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}

	maxRetries := cfg.ConnectRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	var db *gorm.DB
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(dialector, gormConfig)
		if err == nil {
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", i+1).
			Int("max_attempts", maxRetries).
			Msg("Target connection attempt failed")

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, utils.WrapConnectionError("target", ctx.Err())
			case <-time.After(retryDelay):
			}
			retryDelay *= 2 // Exponential backoff
		}
	}
	if err != nil {
		return nil, utils.WrapConnectionError("target", fmt.Errorf("failed after %d attempts: %w", maxRetries, err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, utils.WrapConnectionError("target", fmt.Errorf("failed to get underlying sql.DB: %w", err))
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	target := NewTarget(db, log)
	if err := target.Health(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, utils.WrapConnectionError("target", err)
	}

	return target, nil
}

// Health confirms the target answers a trivial query
func (t *Target) Health(ctx context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.db == nil {
		return fmt.Errorf("database not connected")
	}

	sqlDB, err := t.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var now string
	if err := t.db.WithContext(ctx).Raw("SELECT CURRENT_TIMESTAMP").Scan(&now).Error; err != nil {
		return fmt.Errorf("round-trip query failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return nil
	}

	sqlDB, err := t.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	t.db = nil
	return nil
}

// DB returns the underlying gorm.DB instance
func (t *Target) DB() *gorm.DB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.db
}

// openDialector picks the GORM dialector for a driver name
func openDialector(driver, dsn string) (gorm.Dialector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty connection string")
	}

	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(sqliteDSN(dsn, false)), nil
	default:
		return nil, fmt.Errorf("unsupported target driver %q", driver)
	}
}

// sqliteDSN turns a file path into a go-sqlite3 URI with foreign keys enforced
func sqliteDSN(path string, readOnly bool) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	var params []string
	if readOnly && !strings.Contains(dsn, "mode=") {
		params = append(params, "mode=ro")
	}
	if !strings.Contains(dsn, "_foreign_keys=") && !strings.Contains(dsn, "_fk=") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout=") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// getLogLevel returns the GORM log level for a level name
func getLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryableErrors := []string{
		"connection refused",
		"connection reset",
		"deadlock detected",
		"too many connections",
		"connection timeout",
		"database is locked",
	}

	for _, retryable := range retryableErrors {
		if containsIgnoreCase(errStr, retryable) {
			return true
		}
	}

	return false
}

// containsIgnoreCase checks if string contains substring (case insensitive)
func containsIgnoreCase(s, substr string) bool {
	return len(s) >= len(substr) &&
		strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
