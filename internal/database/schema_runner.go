package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jobika/jobika-migrate/internal/models"
)

// SchemaFunc applies one versioned change to the target schema
type SchemaFunc func(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error

// SchemaStep is a versioned schema change applied after the base tables exist
type SchemaStep struct {
	Version string
	Name    string
	Run     SchemaFunc
}

// SchemaRunner applies schema steps that have not been recorded yet
type SchemaRunner struct {
	db     *gorm.DB
	logger zerolog.Logger
	steps  []SchemaStep
}

// NewSchemaRunner creates a new schema runner
func NewSchemaRunner(db *gorm.DB, logger zerolog.Logger) *SchemaRunner {
	return &SchemaRunner{
		db:     db,
		logger: logger,
		steps:  []SchemaStep{},
	}
}

// Register adds a step to the runner
func (r *SchemaRunner) Register(steps ...SchemaStep) {
	r.steps = append(r.steps, steps...)
}

// Run executes all pending steps, each in its own transaction
func (r *SchemaRunner) Run(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.SchemaVersion{}); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	sort.Slice(r.steps, func(i, j int) bool {
		return r.steps[i].Version < r.steps[j].Version
	})

	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, step := range r.steps {
		if applied[step.Version] {
			r.logger.Debug().
				Str("version", step.Version).
				Str("name", step.Name).
				Msg("Schema step already applied, skipping")
			continue
		}

		r.logger.Info().
			Str("version", step.Version).
			Str("name", step.Name).
			Msg("Applying schema step")

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Run(ctx, tx, r.logger); err != nil {
				return fmt.Errorf("schema step %s failed: %w", step.Version, err)
			}

			record := &models.SchemaVersion{
				Version:   step.Version,
				Name:      step.Name,
				AppliedAt: time.Now().UTC(),
			}
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to record schema step %s: %w", step.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Pending returns the steps that have not been applied yet
func (r *SchemaRunner) Pending(ctx context.Context) ([]SchemaStep, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var pending []SchemaStep
	for _, step := range r.steps {
		if !applied[step.Version] {
			pending = append(pending, step)
		}
	}
	return pending, nil
}

func (r *SchemaRunner) appliedVersions(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)
	if !r.db.WithContext(ctx).Migrator().HasTable(&models.SchemaVersion{}) {
		return applied, nil
	}

	var versions []string
	if err := r.db.WithContext(ctx).Model(&models.SchemaVersion{}).Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied schema steps: %w", err)
	}
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
