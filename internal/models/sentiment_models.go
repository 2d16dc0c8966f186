package models

import "time"

type Label string

const (
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
	LabelPositive Label = "Positive"
)

// Labels is the fixed class order of a ScoreVector.
var Labels = [3]Label{LabelNegative, LabelNeutral, LabelPositive}

func (l Label) Valid() bool {
	switch l {
	case LabelNegative, LabelNeutral, LabelPositive:
		return true
	}
	return false
}

// ScoreVector holds class probabilities indexed negative, neutral, positive.
type ScoreVector [3]float64

type ClassificationResult struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

type AggregateTotals struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// Get returns the running total for a label, zero for unknown labels.
func (t AggregateTotals) Get(label Label) float64 {
	switch label {
	case LabelNegative:
		return t.Negative
	case LabelNeutral:
		return t.Neutral
	case LabelPositive:
		return t.Positive
	}
	return 0
}

type ResultRow struct {
	Label          Label     `json:"sentiment"`
	Score          float64   `json:"score"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Author         string    `json:"author"`
	Parent         string    `json:"parent"`
	Timestamp      time.Time `json:"timestamp"`
}

// Filters restricts which comments end up in a run's result. Zero values
// mean the filter is not active.
type Filters struct {
	Username  string     `json:"username,omitempty"`
	Sentiment Label      `json:"sentiment,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type AnalysisResult struct {
	RunID  string          `json:"run_id"`
	PostID string          `json:"post_id,omitempty"`
	Rows   []ResultRow     `json:"rows"`
	Totals AggregateTotals `json:"totals"`
}
