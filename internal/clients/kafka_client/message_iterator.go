package kafka_client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// pollTimeout bounds each read so a cancelled context is noticed even on an
// idle topic.
const pollTimeout = time.Second

type KafkaMessageIterator struct {
	consumer *kafka.Consumer
	ctx      context.Context
}

func NewKafkaMessageIterator(ctx context.Context, consumer *kafka.Consumer) *KafkaMessageIterator {
	return &KafkaMessageIterator{
		consumer: consumer,
		ctx:      ctx,
	}
}

// Next blocks until a message arrives or the context ends. Read errors are
// retried up to MAX_RETRIES times in a row.
func (it *KafkaMessageIterator) Next() (*kafka.Message, error) {
	if it.consumer == nil {
		return nil, errors.New("[KafkaIterator] Kafka consumer has not been initialized")
	}

	failures := 0
	for failures < MAX_RETRIES {
		if err := it.ctx.Err(); err != nil {
			slog.Warn("[KafkaIterator] Context cancelled, stopping iterator")
			return nil, err
		}

		msg, err := it.consumer.ReadMessage(pollTimeout)
		if err == nil {
			return msg, nil
		}

		var kafkaErr kafka.Error
		if errors.As(err, &kafkaErr) {
			if kafkaErr.Code() == kafka.ErrTimedOut {
				continue
			}
			if kafkaErr.Code() == kafka.ErrAllBrokersDown {
				slog.Error("[KafkaIterator] All Kafka brokers are down. Aborting")
				return nil, err
			}
		}

		failures++
		slog.Warn("[KafkaIterator] Failed to read message, retrying...",
			slog.Int("attempt", failures),
			slog.Int("max_retries", MAX_RETRIES),
			slog.String("error", err.Error()))
		time.Sleep(RETRY_DELAY)
	}
	return nil, errors.New("[KafkaIterator] Failed to read message after retries")
}
