package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

const maxWriteRetries = 3

// Upsert inserts rec unless a row with the same id already exists, in which
// case nothing is written and inserted is false. Existing rows are never
// updated. A missing parent row or a unique clash on another column is a
// ConstraintViolationError.
func (t *Target) Upsert(ctx context.Context, rec models.Record) (bool, error) {
	db := t.DB()
	if db == nil {
		return false, fmt.Errorf("database not connected")
	}

	var result *gorm.DB
	for i := 0; i < maxWriteRetries; i++ {
		result = db.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoNothing: true,
			}).
			Create(rec)
		if result.Error == nil || !isRetryableError(result.Error) {
			break
		}

		if i < maxWriteRetries-1 {
			t.logger.Debug().
				Err(result.Error).
				Str("entity", rec.EntityName()).
				Str("record_id", rec.RecordID()).
				Int("attempt", i+1).
				Msg("Retrying transient write failure")
			time.Sleep(time.Millisecond * 100 * time.Duration(i+1))
		}
	}

	if result.Error != nil {
		return false, classifyWriteError(rec, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// Count returns the number of rows currently in the entity's target table
func (t *Target) Count(ctx context.Context, entity string) (int64, error) {
	db := t.DB()
	if db == nil {
		return 0, fmt.Errorf("database not connected")
	}
	if !models.IsValidEntity(entity) {
		return 0, fmt.Errorf("unknown entity %q", entity)
	}

	var count int64
	if err := db.WithContext(ctx).Table(entity).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", entity, err)
	}
	return count, nil
}

// classifyWriteError maps driver errors onto the migration error taxonomy
func classifyWriteError(rec models.Record, err error) error {
	entity, id := rec.EntityName(), rec.RecordID()

	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return utils.WrapConstraintViolationError(entity, id, utils.ConstraintForeignKey, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return utils.WrapConstraintViolationError(entity, id, utils.ConstraintUnique, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23503": // foreign_key_violation
			return utils.WrapConstraintViolationError(entity, id, utils.ConstraintForeignKey, err)
		case "23505": // unique_violation
			return utils.WrapConstraintViolationError(entity, id, utils.ConstraintUnique, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key constraint"):
		return utils.WrapConstraintViolationError(entity, id, utils.ConstraintForeignKey, err)
	case strings.Contains(msg, "unique constraint"):
		return utils.WrapConstraintViolationError(entity, id, utils.ConstraintUnique, err)
	}

	return fmt.Errorf("failed to write %s '%s': %w", entity, id, err)
}
