package kafka_client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

type Producer struct {
	producer *kafka.Producer
}

func NewProducer(ctx context.Context, cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(flushTimeoutMs); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// Publish sends one message inside its own transaction so consumers reading
// with read_committed never see a half written result.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}

	var err error
	for i := 0; i < 3; i++ {
		if err = p.producer.Produce(msg, nil); err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		if abortErr := p.producer.AbortTransaction(ctx); abortErr != nil {
			return fmt.Errorf("[KafkaClient] failed to abort transaction after produce error: %w", abortErr)
		}
		return fmt.Errorf("[KafkaClient] failed to produce message: %w", err)
	}

	for i := 0; i < 3; i++ {
		if err = p.producer.CommitTransaction(ctx); err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to commit transaction after 3 retries: %w", err)
	}

	slog.Info("[KafkaClient] Published message transactionally",
		slog.String("topic", topic),
		slog.String("key", string(key)))
	return nil
}
