package source

import "github.com/finsent/ingestor/pkg/submission"

// listing is the raw JSON shape of a Reddit "Listing" response.
type listing struct {
	Data struct {
		Children []struct {
			Data rawPost `json:"data"`
		} `json:"children"`
		After string `json:"after"`
	} `json:"data"`
}

// rawPost is the subset of Reddit's post JSON fields this client reads.
// Numeric fields may arrive as floats (created_utc); missing text fields
// are absent from the JSON entirely (handled via Go's zero-value default).
type rawPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Score       float64 `json:"score"`
	NumComments float64 `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
}

// normalize converts a raw upstream post into the domain Submission type,
// applying spec.md §4.1's defaulting rules: non-integer timestamps are
// floored, missing numeric fields default to 0, missing text defaults to "".
func (p rawPost) normalize(community string) submission.Submission {
	sub := community
	if p.Subreddit != "" {
		sub = p.Subreddit
	}
	return submission.Submission{
		ID:          p.ID,
		Community:   sub,
		Title:       p.Title,
		Body:        p.Selftext,
		Score:       int64(p.Score),
		NumComments: int64(p.NumComments),
		CreatedUTC:  submission.FloorTimestamp(p.CreatedUTC),
		Permalink:   p.Permalink,
	}
}
