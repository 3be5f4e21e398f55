package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finsent/ingestor/pkg/submission"
)

// stubClassifier is the deterministic test double used for S3/S4: it maps
// fixed inputs to fixed scores and counts how many times it was invoked,
// so tests can assert the model was (or was not) called.
type stubClassifier struct {
	calls   int
	failNow bool
}

func (s *stubClassifier) Classify(_ context.Context, texts []string) ([]submission.SentimentResult, error) {
	s.calls++
	if s.failNow {
		return nil, &RuntimeError{Err: errors.New("forward pass exploded")}
	}
	out := make([]submission.SentimentResult, len(texts))
	for i, t := range texts {
		switch t {
		case "good":
			out[i] = submission.SentimentResult{Label: submission.LabelPositive, Confidence: 0.9, Positive: 0.9, Negative: 0.05, Neutral: 0.05}
		case "bad":
			out[i] = submission.SentimentResult{Label: submission.LabelNegative, Confidence: 0.9, Positive: 0.05, Negative: 0.9, Neutral: 0.05}
		default:
			label, conf := submission.LabelFromScores(1.0/3, 1.0/3, 1.0/3)
			out[i] = submission.SentimentResult{Label: label, Confidence: conf, Positive: 1.0 / 3, Negative: 1.0 / 3, Neutral: 1.0 / 3}
		}
	}
	return out, nil
}

func (s *stubClassifier) Close() error { return nil }

func TestAnalyze_BatchPreservation(t *testing.T) {
	stub := &stubClassifier{}
	a := NewAnalyzer(stub, Options{})

	in := []string{"good", "bad", "meh", "good"}
	out := a.Analyze(context.Background(), in)

	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	if out[0].Label != submission.LabelPositive {
		t.Errorf("out[0].Label = %v, want positive", out[0].Label)
	}
	if out[1].Label != submission.LabelNegative {
		t.Errorf("out[1].Label = %v, want negative", out[1].Label)
	}
}

func TestAnalyze_EmptyTextShortcutSkipsModel(t *testing.T) {
	stub := &stubClassifier{}
	a := NewAnalyzer(stub, Options{})

	out := a.Analyze(context.Background(), []string{"   "})

	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Label != submission.LabelNeutral {
		t.Errorf("Label = %v, want neutral", out[0].Label)
	}
	if out[0].Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", out[0].Confidence)
	}
	if stub.calls != 0 {
		t.Errorf("classifier called %d times, want 0 for an all-empty batch", stub.calls)
	}
}

func TestAnalyze_DeterministicStubScenario(t *testing.T) {
	stub := &stubClassifier{}
	a := NewAnalyzer(stub, Options{})

	out := a.Analyze(context.Background(), []string{"good", "bad"})

	if out[0].Label != submission.LabelPositive || out[0].Confidence != 0.9 {
		t.Errorf("out[0] = %+v, want label=positive confidence=0.9", out[0])
	}
	if got := out[0].Score(); got != 0.85 {
		t.Errorf("out[0].Score() = %v, want 0.85", got)
	}
	if out[1].Label != submission.LabelNegative || out[1].Confidence != 0.9 {
		t.Errorf("out[1] = %+v, want label=negative confidence=0.9", out[1])
	}
	if got := out[1].Score(); got != -0.85 {
		t.Errorf("out[1].Score() = %v, want -0.85", got)
	}
}

func TestAnalyze_RuntimeFailureYieldsNeutralForBatch(t *testing.T) {
	stub := &stubClassifier{failNow: true}
	errCount := 0
	metrics := recordingMetrics{onErr: func(string) { errCount++ }}
	a := NewAnalyzer(stub, Options{Metrics: &metrics})

	out := a.Analyze(context.Background(), []string{"good", "bad"})

	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	for i, r := range out {
		if r.Label != submission.LabelNeutral || r.Confidence != 1.0 {
			t.Errorf("out[%d] = %+v, want neutral/1.0 after classifier failure", i, r)
		}
	}
	if errCount != 1 {
		t.Errorf("error metric incremented %d times, want 1", errCount)
	}
}

func TestAnalyze_TruncatesLongText(t *testing.T) {
	var seen []string
	capture := &captureClassifier{onClassify: func(texts []string) { seen = append(seen, texts...) }}
	a := NewAnalyzer(capture, Options{MaxChars: 5})

	longText := "abcdefghij"
	a.Analyze(context.Background(), []string{longText})

	if len(seen) != 1 || seen[0] != "abcde" {
		t.Errorf("classifier received %v, want truncated %q", seen, "abcde")
	}
}

type captureClassifier struct {
	onClassify func(texts []string)
}

func (c *captureClassifier) Classify(_ context.Context, texts []string) ([]submission.SentimentResult, error) {
	c.onClassify(texts)
	out := make([]submission.SentimentResult, len(texts))
	for i := range out {
		out[i] = submission.NeutralCertain()
	}
	return out, nil
}

func (c *captureClassifier) Close() error { return nil }

type recordingMetrics struct {
	onErr func(kind string)
}

func (recordingMetrics) ObserveBatch(int, time.Duration) {}
func (m recordingMetrics) IncErrors(kind string) {
	if m.onErr != nil {
		m.onErr(kind)
	}
}
