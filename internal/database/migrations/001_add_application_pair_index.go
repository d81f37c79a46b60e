package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddApplicationPairIndex indexes applications by (user_id, job_id). The pair is
// not unique: a user may apply to the same job more than once.
func AddApplicationPairIndex(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Adding user/job index to applications table")

	return db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_applications_user_job
		ON applications(user_id, job_id)
	`).Error
}
