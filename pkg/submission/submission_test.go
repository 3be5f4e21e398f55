package submission

import "testing"

func TestLabelFromScores_TieBreakOrder(t *testing.T) {
	// Equal scores must resolve neutral > positive > negative.
	label, conf := LabelFromScores(0.5, 0.5, 0.5)
	if label != LabelNeutral || conf != 0.5 {
		t.Errorf("LabelFromScores(0.5,0.5,0.5) = (%s, %v), want (neutral, 0.5)", label, conf)
	}

	label, conf = LabelFromScores(0.6, 0.1, 0.3)
	if label != LabelPositive || conf != 0.6 {
		t.Errorf("LabelFromScores(0.6,0.1,0.3) = (%s, %v), want (positive, 0.6)", label, conf)
	}

	label, conf = LabelFromScores(0.1, 0.6, 0.3)
	if label != LabelNegative || conf != 0.6 {
		t.Errorf("LabelFromScores(0.1,0.6,0.3) = (%s, %v), want (negative, 0.6)", label, conf)
	}
}

func TestLabelFromScores_PositiveNegativeTie(t *testing.T) {
	// positive == negative, both below neutral's tie-break priority but
	// above neutral's score: positive wins over negative on equal value.
	label, _ := LabelFromScores(0.45, 0.45, 0.1)
	if label != LabelPositive {
		t.Errorf("LabelFromScores(0.45,0.45,0.1) = %s, want positive", label)
	}
}

func TestNeutralCertain(t *testing.T) {
	r := NeutralCertain()
	if r.Label != LabelNeutral || r.Confidence != 1.0 || r.Neutral != 1.0 {
		t.Errorf("NeutralCertain() = %+v, want neutral/1.0/1.0", r)
	}
	if r.Score() != 0 {
		t.Errorf("NeutralCertain().Score() = %v, want 0", r.Score())
	}
}

func TestAnalysisText(t *testing.T) {
	cases := []struct{ title, body, want string }{
		{"Up up up", "", "Up up up"},
		{"Title", "Body text", "Title Body text"},
		{"  padded  ", "  also  ", "padded     also"},
		{"", "", ""},
	}
	for _, c := range cases {
		got := AnalysisText(c.title, c.body)
		if got != c.want {
			t.Errorf("AnalysisText(%q, %q) = %q, want %q", c.title, c.body, got, c.want)
		}
	}
}

func TestFloorTimestamp(t *testing.T) {
	if got := FloorTimestamp(1700000000.9); got != 1700000000 {
		t.Errorf("FloorTimestamp(1700000000.9) = %d, want 1700000000", got)
	}
}

func TestNewEnrichedRecord(t *testing.T) {
	sub := Submission{ID: "a1", Title: "good"}
	res := SentimentResult{Label: LabelPositive, Confidence: 0.9, Positive: 0.9, Negative: 0.05, Neutral: 0.05}
	rec := NewEnrichedRecord(sub, res, "run-1")
	if rec.SentimentScore != 0.85 {
		t.Errorf("SentimentScore = %v, want 0.85", rec.SentimentScore)
	}
	if rec.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", rec.RunID)
	}
}
