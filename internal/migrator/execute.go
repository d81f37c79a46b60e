package migrator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jobika/jobika-migrate/internal/config"
	"github.com/jobika/jobika-migrate/internal/database"
	"github.com/jobika/jobika-migrate/internal/database/migrations"
	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// Execute performs a complete run: open the source, connect to the target,
// prepare the target schema, migrate entities in dependency order and verify
// counts. Setup failures end the run before any record is written and are
// returned in Report.Fatal with zero counts.
func Execute(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *Report {
	report := NewReport()
	log := utils.WithRun(logger, report.RunID)
	defer report.Finish()

	entities, err := models.OrderEntities(cfg.Migration.Entities)
	if err != nil {
		report.Fatal = err
		log.Error().Err(err).Msg("Invalid entity selection")
		return report
	}

	dsn, err := cfg.TargetDSN()
	if err != nil {
		report.Fatal = err
		log.Error().Err(err).Msg("Invalid target configuration")
		return report
	}

	log.Info().
		Str("source", cfg.Source.Path).
		Str("target", cfg.RedactedTargetURL()).
		Strs("entities", entities).
		Int("workers", cfg.Migration.Workers).
		Msg("Starting migration")

	// The source is checked first so a missing file is the first thing reported
	source, err := database.OpenSource(ctx, database.SourceConfig{
		Path:     cfg.Source.Path,
		Tables:   cfg.Source.Tables,
		LogLevel: cfg.Target.LogLevel,
	}, log)
	if err != nil {
		report.Fatal = err
		log.Error().Err(err).Msg("Failed to open source database")
		return report
	}
	defer source.Close()

	target, err := database.OpenTarget(ctx, database.TargetConfig{
		Driver:          cfg.Target.Driver,
		DSN:             dsn,
		MaxOpenConns:    cfg.Target.MaxConnections,
		MaxIdleConns:    cfg.Target.MaxIdleConns,
		ConnMaxLifetime: cfg.Target.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Target.ConnMaxIdleTime,
		ConnectRetries:  cfg.Target.ConnectRetries,
		LogLevel:        cfg.Target.LogLevel,
	}, log)
	if err != nil {
		report.Fatal = err
		log.Error().Err(err).Msg("Failed to connect to target database")
		return report
	}
	defer target.Close()

	if err := target.EnsureSchema(ctx, migrations.GetSchemaSteps()...); err != nil {
		report.Fatal = err
		log.Error().Err(err).Msg("Failed to prepare target schema")
		return report
	}

	orchestrator := NewOrchestrator(source, target, log, cfg.Migration.Workers)
	baseline := orchestrator.Baseline(ctx, entities)

	report.Entities = orchestrator.Run(ctx, entities)
	report.Cancelled = ctx.Err() != nil

	// Counts are still gathered for a cancelled run so the report is complete
	report.Verification = Verify(context.WithoutCancel(ctx), source, target, entities, baseline)

	totals := report.Totals()
	log.Info().
		Int("attempted", totals.Attempted).
		Int("inserted", totals.Inserted).
		Int("skipped", totals.Skipped).
		Int("failed", totals.Failed).
		Bool("cancelled", report.Cancelled).
		Int("exit_code", report.ExitCode()).
		Msg("Migration finished")

	return report
}
