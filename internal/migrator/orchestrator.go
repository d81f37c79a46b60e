// Package migrator drives a migration run: it streams each entity out of the
// source, transforms every row and writes it idempotently to the target,
// then verifies counts and assembles the run report.
package migrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jobika/jobika-migrate/internal/database"
	"github.com/jobika/jobika-migrate/internal/models"
	"github.com/jobika/jobika-migrate/internal/transform"
	"github.com/jobika/jobika-migrate/internal/utils"
)

// Counter reports how many rows a store holds for an entity
type Counter interface {
	Count(ctx context.Context, entity string) (int64, error)
}

// RecordSource yields the raw rows of an entity
type RecordSource interface {
	Counter
	Stream(ctx context.Context, entity string) (database.RecordStream, error)
}

// RecordSink accepts transformed records. Upsert reports whether the record
// was newly inserted; an existing id is left untouched.
type RecordSink interface {
	Counter
	Upsert(ctx context.Context, rec models.Record) (bool, error)
}

// DefaultWorkers is the number of concurrent upserts per entity
const DefaultWorkers = 4

// Orchestrator migrates entities one type at a time in dependency order.
// Records within one entity are written by a bounded pool of workers.
type Orchestrator struct {
	source    RecordSource
	target    RecordSink
	transform transform.Func
	workers   int
	logger    zerolog.Logger
}

// NewOrchestrator creates an orchestrator using the standard row transform
func NewOrchestrator(source RecordSource, target RecordSink, logger zerolog.Logger, workers int) *Orchestrator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Orchestrator{
		source:    source,
		target:    target,
		transform: transform.Transform,
		workers:   workers,
		logger:    logger,
	}
}

// Baseline captures the target row count of each entity before anything is
// written. Entities whose count fails are left out.
func (o *Orchestrator) Baseline(ctx context.Context, entities []string) map[string]int64 {
	baseline := make(map[string]int64, len(entities))
	for _, entity := range entities {
		count, err := o.target.Count(ctx, entity)
		if err != nil {
			o.logger.Warn().Err(err).Str("entity", entity).Msg("Could not count existing target rows")
			continue
		}
		baseline[entity] = count
	}
	return baseline
}

// Run migrates entities sequentially in the order given. Once ctx is
// cancelled no further entity is started; the result of the entity in flight
// is still returned with its partial counts.
func (o *Orchestrator) Run(ctx context.Context, entities []string) []EntityResult {
	results := make([]EntityResult, 0, len(entities))
	for _, entity := range entities {
		if ctx.Err() != nil {
			o.logger.Warn().Str("entity", entity).Msg("Run cancelled, entity not started")
			break
		}
		results = append(results, o.MigrateEntity(ctx, entity))
	}
	return results
}

// MigrateEntity streams every row of one entity through the transform into the
// target. A failing record is counted and reported without stopping the
// others. A source read error stops the entity but keeps what was already
// counted.
func (o *Orchestrator) MigrateEntity(ctx context.Context, entity string) EntityResult {
	log := utils.WithEntity(o.logger, entity)
	started := time.Now()
	result := EntityResult{Entity: entity}

	log.Info().Msg("Migrating entity")

	stream, err := o.source.Stream(ctx, entity)
	if err != nil {
		result.ReadError = err
		result.Duration = time.Since(started)
		log.Error().Err(err).Msg("Failed to read source table")
		return result
	}
	defer stream.Close()

	// Writes already dispatched finish even after cancellation
	writeCtx := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(o.workers)

	for stream.Next() {
		if ctx.Err() != nil {
			break
		}
		row := stream.Row()
		g.Go(func() error {
			outcome := o.migrateRecord(writeCtx, log, entity, row)
			mu.Lock()
			result.record(outcome)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are tallied in result
	_ = g.Wait()

	if ctx.Err() != nil {
		result.Cancelled = true
	} else if err := stream.Err(); err != nil {
		result.ReadError = err
		log.Error().Err(err).Int("attempted", result.Attempted).Msg("Source read failed mid-stream")
	}

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].RecordID < result.Failures[j].RecordID
	})
	result.Duration = time.Since(started)

	log.Info().
		Int("attempted", result.Attempted).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration).
		Msg("Entity migrated")

	return result
}

type recordOutcome struct {
	inserted bool
	failure  *RecordFailure
}

func (o *Orchestrator) migrateRecord(ctx context.Context, log zerolog.Logger, entity string, row models.Row) recordOutcome {
	rec, err := o.transform(entity, row)
	if err != nil {
		return failedOutcome(log, entity, transform.RowID(row), err)
	}

	inserted, err := o.target.Upsert(ctx, rec)
	if err != nil {
		return failedOutcome(log, entity, rec.RecordID(), err)
	}

	if inserted {
		log.Debug().Str("record_id", rec.RecordID()).Msg("Record inserted")
	} else {
		log.Debug().Str("record_id", rec.RecordID()).Msg("Record already present, skipped")
	}
	return recordOutcome{inserted: inserted}
}

func failedOutcome(log zerolog.Logger, entity, recordID string, err error) recordOutcome {
	kind := utils.ErrorKind(err)
	log.Warn().
		Err(err).
		Str("record_id", recordID).
		Str("kind", kind).
		Msg("Record failed")

	return recordOutcome{failure: &RecordFailure{
		Entity:   entity,
		RecordID: recordID,
		Kind:     kind,
		Reason:   err.Error(),
	}}
}
