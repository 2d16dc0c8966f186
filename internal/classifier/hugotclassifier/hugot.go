// Package hugotclassifier runs the sentiment model in process. It links
// onnxruntime and the tokenizers library, so only the binary imports it.
package hugotclassifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/sentai/internal/classifier"
	"github.com/spacesedan/sentai/internal/models"
)

// HugotClassifier runs a sequence classification model locally through
// onnxruntime. The tokenizer truncates to the model's maximum length; input
// is additionally capped at maxRunes before tokenization.
type HugotClassifier struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	maxRunes int
}

// NewHugotClassifier downloads the model into modelDir on first use and
// loads it once. Close releases the onnxruntime session.
func NewHugotClassifier(modelName, modelDir string, maxRunes int) (*HugotClassifier, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[HugotClassifier] Failed to create model directory: %w", err)
	}

	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); errors.Is(err, os.ErrNotExist) {
		slog.Info("[HugotClassifier] Model not found, downloading...", slog.String("model", modelName))
		modelPath, err = hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
		if err != nil {
			return nil, fmt.Errorf("[HugotClassifier] Failed to download model %s: %w", modelName, err)
		}
		slog.Info("[HugotClassifier] Model downloaded successfully", slog.String("path", modelPath))
	} else {
		slog.Info("[HugotClassifier] Using existing model", slog.String("path", modelPath))
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[HugotClassifier] Failed to initialize Hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "commentSentimentPipeline",
	}
	// every class score is needed, not just the top one
	config.Options = append(config.Options, pipelines.WithSoftmax(), pipelines.WithMultiLabel())

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("[HugotClassifier] Failed to initialize pipeline: %w", err)
	}

	return &HugotClassifier{session: session, pipeline: pipeline, maxRunes: maxRunes}, nil
}

func (h *HugotClassifier) Classify(ctx context.Context, text string) (models.ScoreVector, error) {
	if err := ctx.Err(); err != nil {
		return models.ScoreVector{}, err
	}

	output, err := h.pipeline.RunPipeline([]string{classifier.TruncateRunes(text, h.maxRunes)})
	if err != nil {
		return models.ScoreVector{}, fmt.Errorf("[HugotClassifier] inference failed: %w", err)
	}
	if len(output.ClassificationOutputs) != 1 {
		return models.ScoreVector{}, fmt.Errorf("[HugotClassifier] expected one output, got %d", len(output.ClassificationOutputs))
	}

	classes := make([]models.ClassScore, 0, len(output.ClassificationOutputs[0]))
	for _, out := range output.ClassificationOutputs[0] {
		classes = append(classes, models.ClassScore{Label: out.Label, Score: float64(out.Score)})
	}
	return classifier.ScoresFromClassOutputs(classes)
}

func (h *HugotClassifier) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Destroy()
}
