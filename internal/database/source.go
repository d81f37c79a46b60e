package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// SourceConfig holds the location of the SQLite source and per-entity table overrides
type SourceConfig struct {
	Path     string
	Tables   map[string]string
	LogLevel string
}

// RecordStream is a lazy, forward-only sequence of source rows
type RecordStream interface {
	// Next advances to the next row, returning false at the end or on error
	Next() bool
	// Row returns the current row; each call to Next yields a fresh map
	Row() models.Row
	// Err returns the error that stopped iteration, if any
	Err() error
	Close() error
}

// Source reads entity rows from the SQLite store. It is opened read-only
// and never writes.
type Source struct {
	db     *gorm.DB
	path   string
	tables map[string]string
	logger zerolog.Logger
	mu     sync.RWMutex
}

// OpenSource opens the SQLite database at cfg.Path in read-only mode. A missing
// file or a failed open is a ConnectionError.
func OpenSource(ctx context.Context, cfg SourceConfig, log zerolog.Logger) (*Source, error) {
	if cfg.Path == "" {
		return nil, utils.WrapConnectionError("source", fmt.Errorf("no source path configured"))
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, utils.WrapConnectionError("source", fmt.Errorf("sqlite database not found at %s: %w", cfg.Path, err))
	}
	if info.IsDir() {
		return nil, utils.WrapConnectionError("source", fmt.Errorf("%s is a directory", cfg.Path))
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(cfg.Path, true)), &gorm.Config{
		Logger:                 logger.Default.LogMode(getLogLevel(cfg.LogLevel)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, utils.WrapConnectionError("source", err)
	}

	source := &Source{
		db:     db,
		path:   cfg.Path,
		tables: cfg.Tables,
		logger: log,
	}

	// A file that is not a SQLite database only fails on first read
	var tableCount int64
	if err := db.WithContext(ctx).Raw("SELECT count(*) FROM sqlite_master").Scan(&tableCount).Error; err != nil {
		_ = source.Close()
		return nil, utils.WrapConnectionError("source", err)
	}

	log.Debug().
		Str("path", cfg.Path).
		Int64("schema_objects", tableCount).
		Msg("Opened source database read-only")

	return source, nil
}

// Table returns the source table backing an entity
func (s *Source) Table(entity string) (string, error) {
	if table, ok := s.tables[entity]; ok && table != "" {
		return table, nil
	}
	e, ok := models.LookupEntity(entity)
	if !ok {
		return "", fmt.Errorf("unknown entity %q", entity)
	}
	return e.SourceTable, nil
}

// Stream opens a cursor over every row of the entity's source table. A missing
// table, or one without an id column, is a QueryError.
func (s *Source) Stream(ctx context.Context, entity string) (RecordStream, error) {
	db := s.DB()
	if db == nil {
		return nil, utils.WrapQueryError(entity, "", fmt.Errorf("database not connected"))
	}

	table, err := s.Table(entity)
	if err != nil {
		return nil, utils.WrapQueryError(entity, table, err)
	}

	if !db.WithContext(ctx).Migrator().HasTable(table) {
		return nil, utils.WrapQueryError(entity, table, fmt.Errorf("table does not exist"))
	}

	rows, err := db.WithContext(ctx).Raw("SELECT * FROM " + pq.QuoteIdentifier(table)).Rows()
	if err != nil {
		return nil, utils.WrapQueryError(entity, table, err)
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, utils.WrapQueryError(entity, table, err)
	}
	if !hasColumn(columns, "id") {
		rows.Close()
		return nil, utils.WrapQueryError(entity, table, fmt.Errorf("table has no id column"))
	}

	return &Cursor{
		entity:  entity,
		table:   table,
		rows:    rows,
		columns: columns,
	}, nil
}

// Count returns the number of rows in the entity's source table
func (s *Source) Count(ctx context.Context, entity string) (int64, error) {
	db := s.DB()
	if db == nil {
		return 0, utils.WrapQueryError(entity, "", fmt.Errorf("database not connected"))
	}

	table, err := s.Table(entity)
	if err != nil {
		return 0, utils.WrapQueryError(entity, table, err)
	}

	var count int64
	if err := db.WithContext(ctx).Raw("SELECT count(*) FROM " + pq.QuoteIdentifier(table)).Scan(&count).Error; err != nil {
		return 0, utils.WrapQueryError(entity, table, err)
	}
	return count, nil
}

// Close closes the source connection
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close source database: %w", err)
	}

	s.db = nil
	return nil
}

// DB returns the underlying gorm.DB instance
func (s *Source) DB() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Cursor walks the rows of one source table
type Cursor struct {
	entity  string
	table   string
	rows    *sql.Rows
	columns []string
	current models.Row
	err     error
}

func (c *Cursor) Next() bool {
	if c.err != nil || c.rows == nil {
		return false
	}

	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = utils.WrapQueryError(c.entity, c.table, err)
		}
		return false
	}

	values := make([]interface{}, len(c.columns))
	pointers := make([]interface{}, len(c.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := c.rows.Scan(pointers...); err != nil {
		c.err = utils.WrapQueryError(c.entity, c.table, err)
		return false
	}

	row := make(models.Row, len(c.columns))
	for i, column := range c.columns {
		// The driver may reuse byte buffers between rows
		if b, ok := values[i].([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
		row[column] = values[i]
	}
	c.current = row
	return true
}

func (c *Cursor) Row() models.Row {
	return c.current
}

func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) Close() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
