package sentiment

import (
	"context"

	"github.com/finsent/ingestor/pkg/submission"
)

// neutralClassifier is the disabled-mode stub from spec.md §4.3: when
// sentiment is turned off, analyze returns neutral-with-confidence-1.0 for
// every input without ever loading a model.
type neutralClassifier struct{}

// NewNeutralClassifier returns the Classifier used when ENABLE_SENTIMENT is
// false. Construction never fails.
func NewNeutralClassifier() Classifier {
	return neutralClassifier{}
}

func (neutralClassifier) Classify(_ context.Context, texts []string) ([]submission.SentimentResult, error) {
	out := make([]submission.SentimentResult, len(texts))
	for i := range out {
		out[i] = submission.NeutralCertain()
	}
	return out, nil
}

func (neutralClassifier) Close() error { return nil }
