package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ClassifierHugot  = "hugot"
	ClassifierRemote = "remote"
	ClassifierVADER  = "vader"
)

type Config struct {
	AppEnv   string
	LogLevel string

	RedditClientID          string
	RedditClientSecret      string
	RedditRequestsPerMinute int

	ClassifierBackend string
	SelectionMode     string
	ModelName         string
	ModelDir          string
	MaxInputRunes     int
	RemoteEndpoint    string
	RemoteToken       string
	RemoteTimeout     time.Duration

	TranslateEnabled bool
	TranslateDest    string
	OpenAIAPIKey     string
	OpenAIModel      string

	ValkeyAddress  string
	ValkeyPassword string
	ValkeyTLS      bool
	ScoreCacheTTL  time.Duration

	KafkaBroker  string
	KafkaGroupID string

	DynamoDBEndpoint string
	DynamoDBRegion   string
	ResultsTable     string

	Workers         int
	DisplayTimezone string
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// Load reads the process environment. Call LoadEnv first to pull in the
// per environment file.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RedditClientID:          os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret:      os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditRequestsPerMinute: getEnvInt("REDDIT_REQUESTS_PER_MINUTE", 60),

		ClassifierBackend: strings.ToLower(getEnv("CLASSIFIER_BACKEND", ClassifierHugot)),
		SelectionMode:     getEnv("SELECTION_MODE", "legacy"),
		ModelName:         getEnv("MODEL_NAME", "cardiffnlp/twitter-roberta-base-sentiment"),
		ModelDir:          getEnv("MODEL_DIR", "./models"),
		MaxInputRunes:     getEnvInt("HUGOT_MAX_INPUT_RUNES", 2048),
		RemoteEndpoint:    getEnv("HF_INFERENCE_ENDPOINT", "https://api-inference.huggingface.co/models/cardiffnlp/twitter-roberta-base-sentiment"),
		RemoteToken:       os.Getenv("HF_API_TOKEN"),
		RemoteTimeout:     getEnvDuration("HF_TIMEOUT", 30*time.Second),

		TranslateEnabled: getEnvBool("TRANSLATE_ENABLED", true),
		TranslateDest:    getEnv("TRANSLATE_DEST", "en"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		ValkeyAddress:  os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
		ValkeyTLS:      getEnvBool("VALKEY_TLS", false),
		ScoreCacheTTL:  getEnvDuration("SCORE_CACHE_TTL", 24*time.Hour),

		KafkaBroker:  getEnv("KAFKA_BROKER", "localhost:29092"),
		KafkaGroupID: getEnv("KAFKA_CONSUMER_GROUP_ID", "sentai-consumer-group"),

		DynamoDBEndpoint: os.Getenv("AWS_ENDPOINT"),
		DynamoDBRegion:   getEnv("AWS_REGION", "us-west-2"),
		ResultsTable:     getEnv("RESULTS_TABLE_NAME", "CommentSentimentResults"),

		Workers:         getEnvInt("PIPELINE_WORKERS", 1),
		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "UTC"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ClassifierBackend {
	case ClassifierHugot, ClassifierRemote, ClassifierVADER:
	default:
		return fmt.Errorf("CLASSIFIER_BACKEND must be one of %s, %s, %s (got %q)",
			ClassifierHugot, ClassifierRemote, ClassifierVADER, c.ClassifierBackend)
	}

	if c.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1 (got %d)", c.Workers)
	}

	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// Location returns the display time zone. validate already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
