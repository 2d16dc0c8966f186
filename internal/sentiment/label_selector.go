package sentiment

import (
	"errors"
	"fmt"
	"math"

	"github.com/spacesedan/sentai/internal/models"
)

// ErrClassifierContractViolation is returned when a classifier produces
// something other than a three class probability distribution.
var ErrClassifierContractViolation = errors.New("classifier contract violation")

const scoreSumTolerance = 1e-3

type SelectionMode string

const (
	// SelectionLegacy compares every score only with its predecessor, so a
	// late increase wins even over a larger earlier score.
	SelectionLegacy SelectionMode = "legacy"
	// SelectionArgMax picks the largest score, first index on ties.
	SelectionArgMax SelectionMode = "argmax"
)

func ParseSelectionMode(s string) (SelectionMode, error) {
	switch SelectionMode(s) {
	case "", SelectionLegacy:
		return SelectionLegacy, nil
	case SelectionArgMax:
		return SelectionArgMax, nil
	}
	return "", fmt.Errorf("unknown selection mode %q (want %q or %q)", s, SelectionLegacy, SelectionArgMax)
}

// NewScoreVector converts raw classifier output into a ScoreVector and
// validates it.
func NewScoreVector(values []float64) (models.ScoreVector, error) {
	var scores models.ScoreVector
	if len(values) != len(scores) {
		return scores, fmt.Errorf("%w: expected %d scores, got %d", ErrClassifierContractViolation, len(scores), len(values))
	}
	copy(scores[:], values)
	return scores, ValidateScores(scores)
}

// ValidateScores checks the vector is a probability distribution.
func ValidateScores(scores models.ScoreVector) error {
	var sum float64
	for i, s := range scores {
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: score %d out of range: %v", ErrClassifierContractViolation, i, s)
		}
		sum += s
	}

	if math.Abs(sum-1) > scoreSumTolerance {
		return fmt.Errorf("%w: scores sum to %v", ErrClassifierContractViolation, sum)
	}
	return nil
}

// SelectLabel maps a score vector to a single label and its score. It does
// not validate; callers run ValidateScores on classifier output first.
func SelectLabel(scores models.ScoreVector, mode SelectionMode) models.ClassificationResult {
	var chosen int
	switch mode {
	case SelectionArgMax:
		chosen = argMax(scores)
	default:
		chosen = adjacentIncrease(scores)
	}

	return models.ClassificationResult{
		Label: models.Labels[chosen],
		Score: scores[chosen],
	}
}

func adjacentIncrease(scores models.ScoreVector) int {
	chosen := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			chosen = i
		}
	}
	return chosen
}

func argMax(scores models.ScoreVector) int {
	chosen := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[chosen] {
			chosen = i
		}
	}
	return chosen
}
