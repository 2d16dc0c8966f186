package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests
)

type OpenAIClient struct {
	Client *openai.Client
	Model  string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
	}
	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: openAIRequestTimeout}
	return newOpenAIClientWithConfig(config, model), nil
}

func newOpenAIClientWithConfig(config openai.ClientConfig, model string) *OpenAIClient {
	slog.Info("[OpenAIClient] OpenAI client initialized",
		slog.String("model", model),
		slog.Duration("timeout", openAIRequestTimeout))
	return &OpenAIClient{
		Client: openai.NewClientWithConfig(config),
		Model:  model,
	}
}

// Translate asks the chat model for a translation of text into dest, a BCP 47
// language tag such as "en" or "pt-BR". One request, no retries.
func (o *OpenAIClient) Translate(ctx context.Context, text, dest string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	tag, err := language.Parse(dest)
	if err != nil {
		return "", fmt.Errorf("[OpenAIClient] invalid destination language %q: %w", dest, err)
	}
	name := display.English.Tags().Name(tag)

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's message into %s. "+
					"Reply with the translation only. If it is already in %s, repeat it unchanged.", name, name),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("[OpenAIClient] translation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("[OpenAIClient] translation response had no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
