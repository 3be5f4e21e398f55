package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/finsent/ingestor/pkg/submission"
)

// FinBERTConfig configures the HTTP-backed real classifier.
type FinBERTConfig struct {
	Model      string // e.g. "ProsusAI/finbert", sent for server-side routing/logging
	Endpoint   string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client // test override; defaults to a client with Timeout set
}

// finbertClassifier is the default realisation of Classifier: a
// pre-trained financial-domain transformer served behind an HTTP inference
// endpoint (spec.md §4.3). Logits arrive in the fixed class order
// [positive, negative, neutral] and are turned into probabilities here via
// softmax.
type finbertClassifier struct {
	cfg    FinBERTConfig
	client *http.Client
	logger *slog.Logger
}

// predictRequest is the request body sent to the inference endpoint.
type predictRequest struct {
	Model     string   `json:"model"`
	Instances []string `json:"instances"`
	MaxTokens int      `json:"max_input_tokens"`
}

// predictResponse holds one [positive, negative, neutral] logit triple per
// input instance, in request order.
type predictResponse struct {
	Predictions [][3]float64 `json:"predictions"`
}

// NewFinBERTClassifier opens an HTTP connection to the inference endpoint
// and verifies it is reachable. Returns *LoadError on failure — fatal at
// startup when sentiment is enabled.
func NewFinBERTClassifier(ctx context.Context, cfg FinBERTConfig, logger *slog.Logger) (Classifier, error) {
	if cfg.Endpoint == "" {
		return nil, &LoadError{Err: fmt.Errorf("sentiment endpoint is empty")}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &finbertClassifier{cfg: cfg, client: httpClient, logger: logger}

	if err := c.ping(ctx); err != nil {
		return nil, &LoadError{Err: err}
	}
	return c, nil
}

const (
	defaultMaxTokens      = 512
	defaultRequestTimeout = 30 * time.Second
)

func (c *finbertClassifier) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("building health check request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching sentiment endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}

// Classify sends texts as a single batch predict request and applies
// softmax + the I2 tie-break to the returned logits.
func (c *finbertClassifier) Classify(ctx context.Context, texts []string) ([]submission.SentimentResult, error) {
	body := predictRequest{Model: c.cfg.Model, Instances: texts, MaxTokens: c.cfg.MaxTokens}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, &RuntimeError{Err: fmt.Errorf("marshalling predict request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, &RuntimeError{Err: fmt.Errorf("building predict request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RuntimeError{Err: fmt.Errorf("executing predict request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &RuntimeError{Err: fmt.Errorf("predict endpoint returned status %d: %s", resp.StatusCode, respBody)}
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &RuntimeError{Err: fmt.Errorf("decoding predict response: %w", err)}
	}
	if len(parsed.Predictions) != len(texts) {
		return nil, &RuntimeError{Err: fmt.Errorf("predict endpoint returned %d predictions for %d inputs", len(parsed.Predictions), len(texts))}
	}

	out := make([]submission.SentimentResult, len(texts))
	for i, logits := range parsed.Predictions {
		positive, negative, neutral := softmax3(logits[0], logits[1], logits[2])
		label, confidence := submission.LabelFromScores(positive, negative, neutral)
		out[i] = submission.SentimentResult{
			Label:      label,
			Confidence: confidence,
			Positive:   positive,
			Negative:   negative,
			Neutral:    neutral,
		}
	}
	return out, nil
}

func (c *finbertClassifier) Close() error { return nil }

// softmax3 turns a [positive, negative, neutral] logit triple into
// probabilities summing to 1.
func softmax3(a, b, c float64) (float64, float64, float64) {
	m := math.Max(a, math.Max(b, c))
	ea, eb, ec := math.Exp(a-m), math.Exp(b-m), math.Exp(c-m)
	sum := ea + eb + ec
	return ea / sum, eb / sum, ec / sum
}
