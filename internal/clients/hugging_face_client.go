package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/sentai/internal/models"
)

type HuggingFaceClient struct {
	Client   *http.Client
	Endpoint string
	Token    string
}

func NewHuggingFaceClient(endpoint, token string, timeout time.Duration) *HuggingFaceClient {
	slog.Info("[HuggingFaceClient] Initializing Client",
		slog.String("endpoint", endpoint),
		slog.Duration("timeout", timeout))

	return &HuggingFaceClient{
		Client:   &http.Client{Timeout: timeout},
		Endpoint: endpoint,
		Token:    token,
	}
}

// ClassifyText sends one text to the inference endpoint. It makes exactly
// one attempt; the caller decides what a failure means for the run.
func (h *HuggingFaceClient) ClassifyText(ctx context.Context, text string) ([]models.ClassScore, error) {
	start := time.Now()

	var nested [][]models.ClassScore
	raw, err := h.postJSON(ctx, models.TextClassificationRequest{
		Inputs:  text,
		Options: models.TextClassificationOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	// the endpoint answers [[...]] for a single input, some deployments [...]
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		slog.Debug("[HuggingFaceClient] Classification request successful",
			slog.Duration("elapsed", time.Since(start)))
		return nested[0], nil
	}

	var flat []models.ClassScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("error", err.Error()),
			getPreview(raw),
			slog.Int("raw_response_length", len(raw)))
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return flat, nil
}

func (h *HuggingFaceClient) postJSON(ctx context.Context, input interface{}) ([]byte, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", USER_AGENT)
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		slog.Error("[HuggingFaceClient] Request failed",
			slog.String("endpoint", h.Endpoint),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var inferenceErr models.InferenceError
		_ = json.Unmarshal(respBody, &inferenceErr)
		slog.Error("[HuggingFaceClient] Inference endpoint returned an error",
			slog.String("error", errMsg(inferenceErr, resp)),
			getPreview(respBody))
		return nil, fmt.Errorf("inference endpoint: %s", errMsg(inferenceErr, resp))
	}

	return respBody, nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(inferenceErr models.InferenceError, resp *http.Response) string {
	if inferenceErr.Error != "" {
		return fmt.Sprintf("status code %d: %s", resp.StatusCode, inferenceErr.Error)
	}
	return fmt.Sprintf("status code %d", resp.StatusCode)
}
