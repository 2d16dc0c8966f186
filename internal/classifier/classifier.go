// Package classifier holds the adapters that turn text into a three class
// sentiment distribution. The hosted Hugging Face adapter and the Valkey
// backed cache live here; the in process ONNX model is in hugotclassifier.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/sentiment"
)

// Classifier must be safe for concurrent use; one handle is shared by every
// run in the process.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ScoreVector, error)
}

var labelIndex = map[string]int{
	"label_0":  0,
	"negative": 0,
	"label_1":  1,
	"neutral":  1,
	"label_2":  2,
	"positive": 2,
}

// ScoresFromClassOutputs orders label/score pairs into a ScoreVector. Models
// emit them sorted by score, so the label names decide the slot.
func ScoresFromClassOutputs(outputs []models.ClassScore) (models.ScoreVector, error) {
	var scores models.ScoreVector
	if len(outputs) != len(scores) {
		return scores, fmt.Errorf("%w: expected %d classes, got %d", sentiment.ErrClassifierContractViolation, len(scores), len(outputs))
	}

	seen := make(map[int]bool, len(scores))
	for _, out := range outputs {
		idx, ok := labelIndex[strings.ToLower(out.Label)]
		if !ok {
			return scores, fmt.Errorf("%w: unknown class label %q", sentiment.ErrClassifierContractViolation, out.Label)
		}
		if seen[idx] {
			return scores, fmt.Errorf("%w: duplicate class label %q", sentiment.ErrClassifierContractViolation, out.Label)
		}
		seen[idx] = true
		scores[idx] = out.Score
	}

	return scores, sentiment.ValidateScores(scores)
}

// TruncateRunes cuts text to at most n runes. n <= 0 disables the limit.
func TruncateRunes(text string, n int) string {
	if n <= 0 {
		return text
	}
	runes := 0
	for i := range text {
		if runes == n {
			return text[:i]
		}
		runes++
	}
	return text
}
