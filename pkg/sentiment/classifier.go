// Package sentiment implements the C5 sentiment classifier: a batched
// text-to-label engine with a fixed input-length budget, graceful
// mid-run failure handling, and a disabled-mode stub. See spec.md §4.3.
package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/finsent/ingestor/pkg/submission"
)

// Classifier is the polymorphic model abstraction from spec.md §4.3: a
// single forward call over a batch of already-preprocessed texts, returning
// per-class logits-turned-probabilities in the same order as the input.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]submission.SentimentResult, error)
	Close() error
}

// Metrics receives the observability hooks the orchestrator wires into
// internal/telemetry. Kept as a narrow interface here so pkg/sentiment
// never imports the prometheus client directly.
type Metrics interface {
	ObserveBatch(size int, duration time.Duration)
	IncErrors(kind string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveBatch(int, time.Duration) {}
func (noopMetrics) IncErrors(string)                {}

// Analyzer wraps a Classifier with the preprocessing, batching, and failure
// handling rules from spec.md §4.3. It is the type the orchestrator talks
// to; Real and Neutral classifiers are interchangeable underneath it.
type Analyzer struct {
	classifier Classifier
	maxChars   int
	batchSize  int
	metrics    Metrics
}

// Options configures Analyzer. Zero values fall back to spec.md defaults:
// MaxChars=400, BatchSize=8.
type Options struct {
	MaxChars  int
	BatchSize int
	Metrics   Metrics
}

const (
	defaultMaxChars  = 400
	defaultBatchSize = 8
)

// NewAnalyzer wraps classifier with the batching/truncation contract.
func NewAnalyzer(classifier Classifier, opts Options) *Analyzer {
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Analyzer{classifier: classifier, maxChars: maxChars, batchSize: batchSize, metrics: metrics}
}

// Analyze classifies texts, partitioning them into sub-batches of the
// configured size (spec.md §4.3 Batching). The returned slice has the same
// length and order as texts.
func (a *Analyzer) Analyze(ctx context.Context, texts []string) []submission.SentimentResult {
	out := make([]submission.SentimentResult, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := start + a.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		a.analyzeBatch(ctx, texts[start:end], out[start:end])
	}
	return out
}

func (a *Analyzer) analyzeBatch(ctx context.Context, texts []string, dst []submission.SentimentResult) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncate(t, a.maxChars)
	}

	// Empty-input shortcut (P10): texts that are empty after trimming
	// whitespace never reach the model. Everything else is forwarded in one
	// call.
	var pending []string
	var pendingIdx []int
	for i, t := range truncated {
		if strings.TrimSpace(t) == "" {
			dst[i] = submission.NeutralCertain()
			continue
		}
		pending = append(pending, t)
		pendingIdx = append(pendingIdx, i)
	}
	if len(pending) == 0 {
		return
	}

	start := time.Now()
	results, err := a.classifier.Classify(ctx, pending)
	a.metrics.ObserveBatch(len(pending), time.Since(start))
	if err != nil {
		a.metrics.IncErrors("classifier")
		for _, i := range pendingIdx {
			dst[i] = submission.NeutralCertain()
		}
		return
	}
	for j, i := range pendingIdx {
		if j < len(results) {
			dst[i] = results[j]
		} else {
			// A classifier that returns fewer results than requested is
			// treated as a per-item tokenisation failure, not a batch failure.
			dst[i] = submission.NeutralCertain()
		}
	}
}

// Close releases the underlying classifier's resources.
func (a *Analyzer) Close() error {
	return a.classifier.Close()
}

func truncate(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}
