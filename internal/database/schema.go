package database

import (
	"context"
	"fmt"

	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// EnsureSchema creates the entity tables and their foreign keys when absent,
// then applies any pending versioned steps. It is safe to call on every run.
// Any failure is a SchemaError.
func (t *Target) EnsureSchema(ctx context.Context, steps ...SchemaStep) error {
	db := t.DB()
	if db == nil {
		return utils.WrapSchemaError("connect", fmt.Errorf("database not connected"))
	}

	if err := db.WithContext(ctx).AutoMigrate(models.TargetModels()...); err != nil {
		return utils.WrapSchemaError("auto-migrate", err)
	}

	runner := NewSchemaRunner(db, t.logger)
	runner.Register(steps...)
	if err := runner.Run(ctx); err != nil {
		return utils.WrapSchemaError("versioned steps", err)
	}

	t.logger.Info().
		Int("tables", len(models.TargetModels())).
		Int("steps", len(steps)).
		Msg("Target schema is up to date")

	return nil
}
