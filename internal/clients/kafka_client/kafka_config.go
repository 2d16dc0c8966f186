package kafka_client

import "github.com/google/uuid"

type KafkaConfig struct {
	Broker          string
	GroupID         string
	Topic           string
	TransactionalID string
}

// NewKafkaConfig gives every process its own transactional id. Sharing one
// lets a new producer fence the producer of a running consumer.
func NewKafkaConfig(broker, groupID string) KafkaConfig {
	return KafkaConfig{
		Broker:          broker,
		GroupID:         groupID,
		Topic:           KAFKA_TOPIC_COMMENT_BATCHES,
		TransactionalID: groupID + "-producer-" + uuid.NewString(),
	}
}
