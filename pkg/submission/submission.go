// Package submission holds the domain types shared by the source client,
// the sentiment classifier, and the sink writer.
package submission

import (
	"math"
	"strings"
)

// Submission is a single forum post as received from the source client.
type Submission struct {
	ID          string
	Community   string
	Title       string
	Body        string
	Score       int64
	NumComments int64
	CreatedUTC  int64 // seconds since epoch
	Permalink   string
}

// SentimentLabel is one of the three financial-domain sentiment classes.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
)

// SentimentResult is the classifier's output for a single input text.
type SentimentResult struct {
	Label      SentimentLabel
	Confidence float64
	Positive   float64
	Negative   float64
	Neutral    float64
}

// Score returns positive - negative, the legacy signed sentiment score.
func (r SentimentResult) Score() float64 {
	return r.Positive - r.Negative
}

// NeutralCertain is the fixed result for empty input and for classifier
// failures: neutral with full confidence.
func NeutralCertain() SentimentResult {
	return SentimentResult{Label: LabelNeutral, Confidence: 1.0, Neutral: 1.0}
}

// LabelFromScores applies invariant I2: argmax of (positive, negative,
// neutral), ties broken in the fixed order neutral > positive > negative.
func LabelFromScores(positive, negative, neutral float64) (SentimentLabel, float64) {
	label := LabelNeutral
	best := neutral
	if positive > best {
		label, best = LabelPositive, positive
	}
	if negative > best {
		label, best = LabelNegative, negative
	}
	return label, best
}

// EnrichedRecord is a Submission plus sentiment fields plus the run that
// produced it. It is immutable once written to the sink.
type EnrichedRecord struct {
	Submission
	SentimentLabel      SentimentLabel
	SentimentConfidence float64
	SentimentPositive   float64
	SentimentNegative   float64
	SentimentNeutral    float64
	SentimentScore      float64
	RunID               string
}

// NewEnrichedRecord builds an EnrichedRecord from a Submission and a
// classifier result, filling in the legacy score field per I5/P5.
func NewEnrichedRecord(sub Submission, res SentimentResult, runID string) EnrichedRecord {
	return EnrichedRecord{
		Submission:          sub,
		SentimentLabel:      res.Label,
		SentimentConfidence: res.Confidence,
		SentimentPositive:   res.Positive,
		SentimentNegative:   res.Negative,
		SentimentNeutral:    res.Neutral,
		SentimentScore:      res.Positive - res.Negative,
		RunID:               runID,
	}
}

// SeenID is a single row of the dedup store's durable tier: an identifier
// and the timestamp it was first observed.
type SeenID struct {
	ID        string
	FirstSeen int64
}

// FloorTimestamp implements spec.md's requirement that non-integer upstream
// timestamps are floored to integer seconds.
func FloorTimestamp(v float64) int64 {
	return int64(math.Floor(v))
}

// AnalysisText concatenates title and body with a single separating space,
// trimming leading/trailing whitespace, per spec.md §4.3 preprocessing rules.
func AnalysisText(title, body string) string {
	text := title
	if body != "" {
		if text != "" {
			text += " "
		}
		text += body
	}
	return strings.TrimSpace(text)
}
