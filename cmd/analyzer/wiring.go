package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentai/config"
	"github.com/spacesedan/sentai/internal/classifier"
	"github.com/spacesedan/sentai/internal/classifier/hugotclassifier"
	"github.com/spacesedan/sentai/internal/clients"
	"github.com/spacesedan/sentai/internal/db"
	"github.com/spacesedan/sentai/internal/pipeline"
	"github.com/spacesedan/sentai/internal/sentiment"
)

// buildClassifier returns the configured backend, wrapped in the Valkey
// score cache when an address is set. The returned func releases it.
func buildClassifier(cfg *config.Config) (pipeline.Classifier, func(), error) {
	var (
		c       pipeline.Classifier
		release = func() {}
		model   = cfg.ModelName
	)

	switch cfg.ClassifierBackend {
	case config.ClassifierHugot:
		hc, err := hugotclassifier.NewHugotClassifier(cfg.ModelName, cfg.ModelDir, cfg.MaxInputRunes)
		if err != nil {
			return nil, nil, err
		}
		c = hc
		release = func() {
			if err := hc.Close(); err != nil {
				slog.Warn("[Main] Failed to close hugot session", slog.String("error", err.Error()))
			}
		}
	case config.ClassifierRemote:
		c = classifier.NewRemoteClassifier(
			clients.NewHuggingFaceClient(cfg.RemoteEndpoint, cfg.RemoteToken, cfg.RemoteTimeout),
			cfg.MaxInputRunes)
	case config.ClassifierVADER:
		c = sentiment.NewVADERClassifier()
		model = "vader"
	default:
		return nil, nil, fmt.Errorf("unknown classifier backend %q", cfg.ClassifierBackend)
	}

	if cfg.ValkeyAddress == "" {
		return c, release, nil
	}

	vc, err := clients.InitValkey(cfg.ValkeyAddress, cfg.ValkeyPassword, cfg.ValkeyTLS)
	if err != nil {
		slog.Warn("[Main] Score cache unavailable, classifying without it",
			slog.String("error", err.Error()))
		return c, release, nil
	}

	inner := release
	return classifier.NewCachedClassifier(c, vc, model, cfg.ScoreCacheTTL), func() {
		inner()
		clients.CloseValkey()
	}, nil
}

// buildTranslator returns nil when translation is off or unconfigured; the
// pipeline then keeps comments in their original language.
func buildTranslator(cfg *config.Config) pipeline.Translator {
	if !cfg.TranslateEnabled {
		return nil
	}
	tr, err := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		slog.Warn("[Main] Translation disabled", slog.String("error", err.Error()))
		return nil
	}
	return tr
}

func buildResultStore(ctx context.Context, cfg *config.Config) (*db.ResultStore, error) {
	client, err := clients.GetDynamoDBClient(ctx, cfg.DynamoDBRegion, cfg.DynamoDBEndpoint)
	if err != nil {
		return nil, err
	}
	return db.NewResultStore(client, cfg.ResultsTable), nil
}

func selectionMode(flagValue string, cfg *config.Config) (sentiment.SelectionMode, error) {
	if flagValue != "" {
		return sentiment.ParseSelectionMode(flagValue)
	}
	return sentiment.ParseSelectionMode(cfg.SelectionMode)
}
