// Package app wires configuration, infrastructure, and the C7 orchestrator
// into a single run (SPEC_FULL.md §3, §5). Run is the sole entry point
// cmd/ingestor calls.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finsent/ingestor/internal/config"
	"github.com/finsent/ingestor/internal/notify"
	"github.com/finsent/ingestor/internal/platform"
	"github.com/finsent/ingestor/internal/runledger"
	"github.com/finsent/ingestor/internal/runlock"
	"github.com/finsent/ingestor/internal/telemetry"
	"github.com/finsent/ingestor/pkg/dedup"
	"github.com/finsent/ingestor/pkg/orchestrator"
	"github.com/finsent/ingestor/pkg/sentiment"
	"github.com/finsent/ingestor/pkg/sink"
	"github.com/finsent/ingestor/pkg/source"
)

// Run executes exactly one ingestion pass: connect optional infrastructure,
// build the pipeline, run it, and report the outcome. The returned error is
// typed per spec.md §7 so cmd/ingestor can map it to the correct exit code.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With("run_id", runID)
	logger.Info("starting ingestor run", "subreddits", cfg.Subreddits, "sentiment_enabled", cfg.EnableSentiment)

	reg := telemetry.NewRegistry(telemetry.BuildMetadata{
		Version:   cfg.BuildVersion,
		Commit:    cfg.BuildCommit,
		BuildDate: cfg.BuildDate,
	})

	if cfg.EnableMetrics {
		metricsSrv := telemetry.NewServer(cfg.MetricsAddr(), reg, logger)
		go func() {
			if err := metricsSrv.Run(ctx); err != nil {
				logger.Error("metrics server exited with error", "error", err)
			}
		}()
	}

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)

	ledgerWriter, closeLedger := setupRunLedger(ctx, cfg, logger)
	defer closeLedger()

	releaseLock, err := acquireRunLock(ctx, cfg, logger)
	if err != nil {
		notifier.PostFailure(ctx, runID, "DedupLockError", 3)
		return err
	}
	defer releaseLock()

	dedupStore, err := dedup.Open(cfg.DedupDBPath, dedup.Options{
		Capacity:          cfg.DedupCapacity,
		FalsePositiveRate: cfg.DedupFalsePosit,
	}, logger)
	if err != nil {
		notifier.PostFailure(ctx, runID, fmt.Sprintf("%T", err), exitCodeFor(err))
		return err
	}
	defer func() {
		if err := dedupStore.Close(); err != nil {
			logger.Error("closing dedup store", "error", err)
		}
	}()

	analyzer, closeAnalyzer, err := setupAnalyzer(ctx, cfg, logger, reg)
	if err != nil {
		notifier.PostFailure(ctx, runID, "ClassifierLoadError", 4)
		return err
	}
	defer closeAnalyzer()

	sinkWriter, err := sink.Open(cfg.OutputPath, logger)
	if err != nil {
		notifier.PostFailure(ctx, runID, fmt.Sprintf("%T", err), 1)
		return err
	}
	defer func() {
		if err := sinkWriter.Close(); err != nil {
			logger.Error("closing sink writer", "error", err)
		}
	}()

	sourceClient, err := source.New(ctx, source.Config{
		ClientID:           cfg.RedditClientID,
		ClientSecret:       cfg.RedditClientSecret,
		UserAgent:          cfg.RedditUserAgent,
		MinRequestInterval: cfg.SourceMinInterval,
		RequestTimeout:     cfg.SourceTimeout,
	}, logger)
	if err != nil {
		notifier.PostFailure(ctx, runID, "SourceAuthError", 1)
		return err
	}

	ledgerWriter.Log(runledger.Entry{
		RunID:       runID,
		StartedAt:   time.Now(),
		Communities: cfg.Subreddits,
		Status:      "running",
	})

	orc := orchestrator.New(sourceClient, dedupStore, analyzer, sinkWriter, reg, logger, cfg.RateLimitMaxWait)
	runErr := orc.Run(ctx, orchestrator.Params{
		RunID:       runID,
		Communities: cfg.Subreddits,
		FetchLimit:  cfg.FetchLimit,
		Deadline:    cfg.RunDeadline,
	})

	status := "success"
	exitCode := 0
	if runErr != nil {
		status = "failed"
		exitCode = exitCodeFor(runErr)
		notifier.PostFailure(ctx, runID, fmt.Sprintf("%T", runErr), exitCode)
	}

	ledgerWriter.Log(runledger.Entry{
		RunID:       runID,
		FinishedAt:  time.Now(),
		Communities: cfg.Subreddits,
		Status:      status,
		ExitCode:    exitCode,
	})

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return runErr
	}
	logger.Info("run completed successfully")
	return nil
}

func setupRunLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runledger.Writer, func()) {
	if !cfg.RunLedgerEnabled() {
		w := runledger.NewWriter(nil, logger)
		return w, func() {}
	}

	pool, err := platform.NewPostgresPool(ctx, cfg.RunLedgerDSN)
	if err != nil {
		logger.Error("connecting to run ledger database, continuing without it", "error", err)
		w := runledger.NewWriter(nil, logger)
		return w, func() {}
	}

	if err := platform.RunLedgerMigrations(cfg.RunLedgerDSN, cfg.RunLedgerMigrationsDir); err != nil {
		logger.Error("running run ledger migrations, continuing without it", "error", err)
		pool.Close()
		w := runledger.NewWriter(nil, logger)
		return w, func() {}
	}

	w := runledger.NewWriter(pool, logger)
	w.Start(ctx)
	return w, func() {
		w.Close()
		pool.Close()
	}
}

func acquireRunLock(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(), error) {
	if !cfg.RunLockEnabled() {
		lock := runlock.New(nil, cfg.DedupDBPath, 0)
		return func() { _ = lock.Release(ctx) }, nil
	}

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return func() {}, &dedup.LockError{Err: fmt.Errorf("connecting to redis for run lock: %w", err)}
	}

	lock := runlock.New(rdb, cfg.DedupDBPath, cfg.RunDeadline+time.Minute)
	if err := lock.Acquire(ctx); err != nil {
		rdb.Close()
		return func() {}, &dedup.LockError{Err: err}
	}

	return func() {
		if err := lock.Release(ctx); err != nil {
			logger.Error("releasing run lock", "error", err)
		}
		rdb.Close()
	}, nil
}

func setupAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *telemetry.Registry) (*sentiment.Analyzer, func(), error) {
	if !cfg.EnableSentiment {
		analyzer := sentiment.NewAnalyzer(sentiment.NewNeutralClassifier(), sentiment.Options{
			MaxChars:  cfg.SentimentMaxChars,
			BatchSize: cfg.SentimentBatchSize,
			Metrics:   reg,
		})
		return analyzer, func() {}, nil
	}

	loadStart := time.Now()
	classifier, err := sentiment.NewFinBERTClassifier(ctx, sentiment.FinBERTConfig{
		Model:     cfg.FinBERTModel,
		Endpoint:  cfg.SentimentEndpoint,
		MaxTokens: cfg.SentimentMaxTokens,
		Timeout:   cfg.SentimentRequestTimeout,
	}, logger)
	if err != nil {
		return nil, func() {}, err
	}
	reg.ObserveModelLoadDuration(time.Since(loadStart).Seconds())

	analyzer := sentiment.NewAnalyzer(classifier, sentiment.Options{
		MaxChars:  cfg.SentimentMaxChars,
		BatchSize: cfg.SentimentBatchSize,
		Metrics:   reg,
	})
	return analyzer, func() {
		if err := analyzer.Close(); err != nil {
			logger.Error("closing sentiment analyzer", "error", err)
		}
	}, nil
}

// ExitCode maps a typed pipeline error returned by Run to the process exit
// code from spec.md §6.
func ExitCode(err error) int {
	return exitCodeFor(err)
}

// exitCodeFor maps a typed pipeline error to the process exit code from
// spec.md §6.
func exitCodeFor(err error) int {
	var configErr *config.ConfigError
	if errors.As(err, &configErr) {
		return 2
	}
	var dedupOpen *dedup.OpenError
	var dedupLock *dedup.LockError
	if errors.As(err, &dedupOpen) || errors.As(err, &dedupLock) {
		return 3
	}
	var loadErr *sentiment.LoadError
	if errors.As(err, &loadErr) {
		return 4
	}
	var deadlineErr *orchestrator.DeadlineExceededError
	if errors.As(err, &deadlineErr) {
		return 5
	}
	if source.AsAuthError(err) {
		return 1
	}
	return 1
}
