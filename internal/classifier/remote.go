package classifier

import (
	"context"
	"fmt"

	"github.com/spacesedan/sentai/internal/models"
)

type inferenceClient interface {
	ClassifyText(ctx context.Context, text string) ([]models.ClassScore, error)
}

// RemoteClassifier delegates inference to a hosted text classification
// endpoint.
type RemoteClassifier struct {
	client   inferenceClient
	maxRunes int
}

func NewRemoteClassifier(client inferenceClient, maxRunes int) *RemoteClassifier {
	return &RemoteClassifier{client: client, maxRunes: maxRunes}
}

func (r *RemoteClassifier) Classify(ctx context.Context, text string) (models.ScoreVector, error) {
	classes, err := r.client.ClassifyText(ctx, TruncateRunes(text, r.maxRunes))
	if err != nil {
		return models.ScoreVector{}, fmt.Errorf("[RemoteClassifier] %w", err)
	}
	return ScoresFromClassOutputs(classes)
}
