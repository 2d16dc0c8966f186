package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "")
	t.Setenv("PIPELINE_WORKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ClassifierHugot, cfg.ClassifierBackend)
	assert.Equal(t, "legacy", cfg.SelectionMode)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 24*time.Hour, cfg.ScoreCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "VADER")
	t.Setenv("PIPELINE_WORKERS", "4")
	t.Setenv("SCORE_CACHE_TTL", "90m")
	t.Setenv("TRANSLATE_ENABLED", "false")
	t.Setenv("DISPLAY_TIMEZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ClassifierVADER, cfg.ClassifierBackend)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 90*time.Minute, cfg.ScoreCacheTTL)
	assert.False(t, cfg.TranslateEnabled)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend": {"CLASSIFIER_BACKEND": "bert"},
		"zero workers":    {"PIPELINE_WORKERS": "0"},
		"bad timezone":    {"DISPLAY_TIMEZONE": "Mars/Olympus"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
