package sentiment

import (
	"fmt"
	"math"

	"github.com/spacesedan/sentai/internal/models"
)

// Accumulate adds the result score to the total of its label.
func Accumulate(totals models.AggregateTotals, result models.ClassificationResult) models.AggregateTotals {
	switch result.Label {
	case models.LabelNegative:
		totals.Negative += result.Score
	case models.LabelNeutral:
		totals.Neutral += result.Score
	case models.LabelPositive:
		totals.Positive += result.Score
	}
	return totals
}

// VerifyTotals recomputes the per label sums from rows and reports the first
// label whose total drifts from the accumulated one.
func VerifyTotals(rows []models.ResultRow, totals models.AggregateTotals) error {
	var expected models.AggregateTotals
	for _, row := range rows {
		expected = Accumulate(expected, models.ClassificationResult{Label: row.Label, Score: row.Score})
	}

	for _, label := range models.Labels {
		if math.Abs(expected.Get(label)-totals.Get(label)) > 1e-9 {
			return fmt.Errorf("total for %s is %v, rows sum to %v", label, totals.Get(label), expected.Get(label))
		}
	}
	return nil
}

type LabelSummary struct {
	Label models.Label `json:"label"`
	Count int          `json:"count"`
	Total float64      `json:"total"`
}

// Summarize returns count and score total per label in the fixed
// Positive, Neutral, Negative order used by the bar chart.
func Summarize(rows []models.ResultRow, totals models.AggregateTotals) []LabelSummary {
	counts := make(map[models.Label]int, len(models.Labels))
	for _, row := range rows {
		counts[row.Label]++
	}

	order := []models.Label{models.LabelPositive, models.LabelNeutral, models.LabelNegative}
	summary := make([]LabelSummary, 0, len(order))
	for _, label := range order {
		summary = append(summary, LabelSummary{
			Label: label,
			Count: counts[label],
			Total: totals.Get(label),
		})
	}
	return summary
}
