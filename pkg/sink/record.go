package sink

import (
	"strconv"

	"github.com/finsent/ingestor/pkg/submission"
)

// header is the fixed field order from spec.md §6, also required by
// invariant I5 (every data row has exactly this many fields).
var header = []string{
	"post_id", "title", "content", "score", "created_utc", "subreddit", "url",
	"num_comments", "sentiment_label", "sentiment_confidence", "sentiment_positive",
	"sentiment_negative", "sentiment_neutral", "sentiment_score", "run_id",
}

func toRow(r submission.EnrichedRecord) []string {
	return []string{
		r.ID,
		r.Title,
		r.Body,
		strconv.FormatInt(r.Score, 10),
		strconv.FormatInt(r.CreatedUTC, 10),
		r.Community,
		r.Permalink,
		strconv.FormatInt(r.NumComments, 10),
		string(r.SentimentLabel),
		strconv.FormatFloat(r.SentimentConfidence, 'f', -1, 64),
		strconv.FormatFloat(r.SentimentPositive, 'f', -1, 64),
		strconv.FormatFloat(r.SentimentNegative, 'f', -1, 64),
		strconv.FormatFloat(r.SentimentNeutral, 'f', -1, 64),
		strconv.FormatFloat(r.SentimentScore, 'f', -1, 64),
		r.RunID,
	}
}
