package kafka_client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKafkaConfig(t *testing.T) {
	cfg := NewKafkaConfig("localhost:29092", "sentai-consumer-group")

	assert.Equal(t, "localhost:29092", cfg.Broker)
	assert.Equal(t, "sentai-consumer-group", cfg.GroupID)
	assert.Equal(t, KAFKA_TOPIC_COMMENT_BATCHES, cfg.Topic)
	assert.True(t, strings.HasPrefix(cfg.TransactionalID, "sentai-consumer-group-producer-"))
}

func TestNewKafkaConfig_TransactionalIDPerProcess(t *testing.T) {
	a := NewKafkaConfig("localhost:29092", "sentai-consumer-group")
	b := NewKafkaConfig("localhost:29092", "sentai-consumer-group")

	assert.NotEqual(t, a.TransactionalID, b.TransactionalID,
		"a second replica or a one-off publish must not fence the running producer")
}
