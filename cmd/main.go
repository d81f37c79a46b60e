package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/jobika/jobika-migrate/internal/config"
	"github.com/jobika/jobika-migrate/internal/migrator"
	"github.com/jobika/jobika-migrate/internal/utils"
)

const version = "v1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		sourcePath = flag.String("source", "", "Path to the SQLite database (overrides SQLITE_PATH)")
		targetURL  = flag.String("target", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
		workers    = flag.Int("workers", 0, "Concurrent writes per entity")
		entities   = flag.String("entities", "", "Comma separated subset of entities to migrate")
		reportFile = flag.String("report-file", "", "Write a JSON run report to this path")
	)
	flag.Parse()

	// Load configuration
	cfg, err := loadConfiguration(*configPath, flagOverrides(*sourcePath, *targetURL, *workers, *entities, *reportFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	// Set up logging
	logger := setupLogging(cfg)
	logger.Info().Str("version", version).Msg("Starting JoBika SQLite to PostgreSQL migration")

	// Create context for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop dispatching new records on the first signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn().Str("signal", sig.String()).Msg("Received signal, finishing in-flight writes")
			cancel()
		case <-ctx.Done():
		}
	}()

	report := migrator.Execute(ctx, cfg, logger)

	if err := report.WriteSummary(os.Stdout); err != nil {
		logger.Error().Err(err).Msg("Failed to write summary")
	}

	if cfg.Migration.ReportFile != "" {
		if err := writeReportFile(cfg.Migration.ReportFile, report); err != nil {
			logger.Error().Err(err).Str("path", cfg.Migration.ReportFile).Msg("Failed to write report file")
		} else {
			logger.Info().Str("path", cfg.Migration.ReportFile).Msg("Report file written")
		}
	}

	return report.ExitCode()
}

// flagOverrides returns config overrides for the flags that were set
func flagOverrides(sourcePath, targetURL string, workers int, entities, reportFile string) map[string]interface{} {
	overrides := make(map[string]interface{})
	if sourcePath != "" {
		overrides["source.path"] = sourcePath
	}
	if targetURL != "" {
		overrides["target.url"] = targetURL
	}
	if workers > 0 {
		overrides["migration.workers"] = workers
	}
	if entities != "" {
		var names []string
		for _, name := range strings.Split(entities, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		overrides["migration.entities"] = names
	}
	if reportFile != "" {
		overrides["migration.report_file"] = reportFile
	}
	return overrides
}

// loadConfiguration loads the run configuration. Unlike a long running
// server there is no fallback to defaults: a run without a target must fail.
func loadConfiguration(configPath string, overrides map[string]interface{}) (*config.Config, error) {
	return config.LoadConfigWithOverrides(configPath, overrides)
}

// setupLogging configures the application logger. Logs go to stderr or the
// configured file so stdout carries only the summary.
func setupLogging(cfg *config.Config) zerolog.Logger {
	logConfig := utils.LoggerConfig{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Debug,
		CallerInfo: cfg.Log.Debug,
		LogFile:    cfg.Log.File,
	}
	if cfg.Log.Debug {
		logConfig.Level = "debug"
	}

	return utils.NewLogger(logConfig)
}

// writeReportFile stores the JSON report for targeted reruns
func writeReportFile(path string, report *migrator.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := report.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return f.Close()
}
