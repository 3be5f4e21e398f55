// Package orchestrator implements the C7 run orchestrator: the
// single-shot fetch → filter → classify → write → record pipeline with
// at-most-once output semantics. See spec.md §4.6.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/finsent/ingestor/pkg/sink"
	"github.com/finsent/ingestor/pkg/source"
	"github.com/finsent/ingestor/pkg/submission"
)

// Fetcher is the subset of pkg/source.Client the orchestrator depends on.
type Fetcher interface {
	Fetch(ctx context.Context, community string, limit int) ([]submission.Submission, error)
}

// DedupStore is the subset of pkg/dedup.Store the orchestrator depends on.
type DedupStore interface {
	Seen(id string) (bool, error)
	MarkSeen(id string, ts time.Time) error
}

// Analyzer is the subset of pkg/sentiment.Analyzer the orchestrator depends
// on.
type Analyzer interface {
	Analyze(ctx context.Context, texts []string) []submission.SentimentResult
}

// SinkWriter is the subset of pkg/sink.Writer the orchestrator depends on.
type SinkWriter interface {
	Append(r submission.EnrichedRecord) error
}

// Metrics is the subset of internal/telemetry.Registry the orchestrator
// depends on.
type Metrics interface {
	IncPostsFetched(community string, n int)
	IncPostsDeduplicated()
	IncPostsProcessed()
	IncSentimentLabel(label string)
	IncError(component, kind string)
	SetStatus(healthy bool)
	SetLastSuccessfulRun(unixSeconds int64)
	SetMemoryUsageBytes(bytes uint64)
	ObserveTotalDuration(seconds float64)
}

// Orchestrator runs one pipeline pass per Run call.
type Orchestrator struct {
	fetcher          Fetcher
	dedup            DedupStore
	analyzer         Analyzer
	sink             SinkWriter
	metrics          Metrics
	logger           *slog.Logger
	rateLimitMaxWait time.Duration
}

// New builds an Orchestrator from its already-constructed dependencies.
// Startup-fatal steps (config load, dedup open, classifier construction —
// spec.md §4.6 steps 2–4) happen in the caller before this is built.
func New(fetcher Fetcher, dedup DedupStore, analyzer Analyzer, sink SinkWriter, metrics Metrics, logger *slog.Logger, rateLimitMaxWait time.Duration) *Orchestrator {
	return &Orchestrator{
		fetcher:          fetcher,
		dedup:            dedup,
		analyzer:         analyzer,
		sink:             sink,
		metrics:          metrics,
		logger:           logger,
		rateLimitMaxWait: rateLimitMaxWait,
	}
}

// Params configures a single Run (spec.md §4.6 steps 1, 5).
type Params struct {
	RunID       string
	Communities []string
	FetchLimit  int
	Deadline    time.Duration
}

// Run executes steps 5–9 of spec.md §4.6: walk communities, filter through
// dedup, classify the pending batch, commit records in order, and finalize
// metrics. Returns nil on success; *DeadlineExceededError if the run
// deadline elapsed; or the first fatal error encountered (source auth
// failure, dedup read failure).
func (o *Orchestrator) Run(ctx context.Context, p Params) error {
	start := time.Now()

	runCtx := ctx
	if p.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(ctx, start.Add(p.Deadline))
		defer cancel()
	}

	pending, deadlineHit, err := o.collect(runCtx, p)
	if err != nil {
		o.metrics.SetStatus(false)
		return err
	}

	records := o.classify(runCtx, pending, p.RunID)
	o.commit(records)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	o.metrics.SetMemoryUsageBytes(memStats.Sys)
	o.metrics.ObserveTotalDuration(time.Since(start).Seconds())

	if deadlineHit {
		o.metrics.SetStatus(false)
		return &DeadlineExceededError{}
	}

	o.metrics.SetLastSuccessfulRun(time.Now().Unix())
	o.metrics.SetStatus(true)
	return nil
}

// collect implements step 5: walk every community, filter through dedup,
// and return the surviving submissions in fetch order.
func (o *Orchestrator) collect(ctx context.Context, p Params) ([]submission.Submission, bool, error) {
	var pending []submission.Submission

	for _, community := range p.Communities {
		select {
		case <-ctx.Done():
			o.logger.Warn("run deadline reached, skipping remaining communities", "community", community)
			return pending, true, nil
		default:
		}

		subs, err := o.fetchWithRetry(ctx, community, p.FetchLimit)
		if err != nil {
			if source.AsAuthError(err) {
				o.metrics.IncError("source", "auth")
				return pending, false, err
			}
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
				o.logger.Warn("run deadline reached mid-fetch, skipping remaining communities", "community", community)
				return pending, true, nil
			}
			o.metrics.IncError("source", sourceErrorKind(err))
			o.logger.Warn("source fetch failed for community, skipping", "community", community, "error", err)
			continue
		}

		o.metrics.IncPostsFetched(community, len(subs))
		for _, s := range subs {
			seen, err := o.dedup.Seen(s.ID)
			if err != nil {
				return pending, false, err
			}
			if seen {
				o.metrics.IncPostsDeduplicated()
				continue
			}
			pending = append(pending, s)
		}
	}

	return pending, false, nil
}

// fetchWithRetry implements step 5's rate-limit handling: sleep the
// suggested duration (capped) and retry exactly once.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, community string, limit int) ([]submission.Submission, error) {
	subs, err := o.fetcher.Fetch(ctx, community, limit)
	if err == nil {
		return subs, nil
	}

	rl, ok := source.AsRateLimitError(err)
	if !ok {
		return nil, err
	}

	wait := rl.RetryAfter
	if o.rateLimitMaxWait > 0 && wait > o.rateLimitMaxWait {
		wait = o.rateLimitMaxWait
	}
	o.logger.Warn("source rate limited, retrying once", "community", community, "wait", wait)

	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return o.fetcher.Fetch(ctx, community, limit)
}

// classify implements step 6: classify the pending batch and pair each
// result back up with its submission.
func (o *Orchestrator) classify(ctx context.Context, pending []submission.Submission, runID string) []submission.EnrichedRecord {
	texts := make([]string, len(pending))
	for i, s := range pending {
		texts[i] = submission.AnalysisText(s.Title, s.Body)
	}
	results := o.analyzer.Analyze(ctx, texts)

	records := make([]submission.EnrichedRecord, len(pending))
	for i, s := range pending {
		records[i] = submission.NewEnrichedRecord(s, results[i], runID)
	}
	return records
}

// commit implements step 7's per-record commit order: write through the
// sink, then on success only mark the identifier seen, then record
// metrics. A sink failure drops the record and leaves it unmarked so a
// retry run re-fetches it (I1).
func (o *Orchestrator) commit(records []submission.EnrichedRecord) {
	for _, rec := range records {
		if err := o.sink.Append(rec); err != nil {
			o.metrics.IncError("sink", sinkErrorKind(err))
			o.logger.Error("sink write failed, dropping record", "post_id", rec.ID, "error", err)
			continue
		}

		if err := o.dedup.MarkSeen(rec.ID, time.Unix(rec.CreatedUTC, 0)); err != nil {
			o.metrics.IncError("dedup", "write")
			o.logger.Error("marking submission seen failed; a future run may re-emit it", "post_id", rec.ID, "error", err)
		}

		o.metrics.IncPostsProcessed()
		o.metrics.IncSentimentLabel(string(rec.SentimentLabel))
	}
}

func sourceErrorKind(err error) string {
	switch {
	case source.AsAuthError(err):
		return "auth"
	default:
		if _, ok := source.AsRateLimitError(err); ok {
			return "rate_limit"
		}
		var transient *source.TransientError
		if errors.As(err, &transient) {
			return "transient"
		}
		var fatal *source.FatalError
		if errors.As(err, &fatal) {
			return "fatal"
		}
		return "unknown"
	}
}

func sinkErrorKind(err error) string {
	var writeErr *sink.WriteError
	if errors.As(err, &writeErr) {
		return "write"
	}
	return "unknown"
}
