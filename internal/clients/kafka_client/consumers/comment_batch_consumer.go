package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentai/internal/clients/kafka_client"
	"github.com/spacesedan/sentai/internal/clients/kafka_client/utils"
	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/sentiment"
)

type MessageSource interface {
	Next() (*kafka.Message, error)
}

type Committer interface {
	Commit(msg *kafka.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Analyzer interface {
	Run(ctx context.Context, comments []models.Comment, filters models.Filters) (models.AnalysisResult, error)
}

// RunTracker remembers finished runs so a redelivered batch is not analyzed
// twice.
type RunTracker interface {
	IsRunCompleted(ctx context.Context, runID string) bool
	MarkRunCompleted(ctx context.Context, runID string) error
}

type ResultSink interface {
	BatchInsertResultRows(ctx context.Context, runID, postID string, rows []models.ResultRow) error
}

type CommentBatchConsumer struct {
	analyzer     Analyzer
	publisher    Publisher
	tracker      RunTracker
	sink         ResultSink
	resultsTopic string
}

// NewCommentBatchConsumer wires the handler. tracker and sink may be nil.
func NewCommentBatchConsumer(analyzer Analyzer, publisher Publisher, tracker RunTracker, sink ResultSink) *CommentBatchConsumer {
	return &CommentBatchConsumer{
		analyzer:     analyzer,
		publisher:    publisher,
		tracker:      tracker,
		sink:         sink,
		resultsTopic: kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS,
	}
}

// Start is the ConsumerFunc registered for the comment-batches topic.
func (c *CommentBatchConsumer) Start(ctx context.Context, consumer *kafka.Consumer) error {
	return c.Consume(ctx,
		kafka_client.NewKafkaMessageIterator(ctx, consumer),
		kafka_client.NewCommitHandler(ctx, consumer))
}

// Consume handles messages until ctx ends. A message is committed only after
// its results are published. Malformed batches are logged and committed so
// they do not block the partition; any other failure stops the consumer with
// the offset uncommitted. Cancellation mid-batch is a clean stop, also
// without a commit.
func (c *CommentBatchConsumer) Consume(ctx context.Context, source MessageSource, committer Committer) error {
	slog.Info("[CommentBatchConsumer] Listening for messages...")

	for {
		msg, err := source.Next()
		if err != nil {
			if ctx.Err() != nil {
				slog.Warn("[CommentBatchConsumer] Stopping consumer...")
				return nil
			}
			return fmt.Errorf("[CommentBatchConsumer] read: %w", err)
		}

		if err := c.Handle(ctx, msg.Value); err != nil {
			if ctx.Err() != nil {
				slog.Warn("[CommentBatchConsumer] Stopping consumer mid-batch, offset left uncommitted",
					slog.String("key", string(msg.Key)))
				return nil
			}
			if !isPoison(err) {
				return err
			}
			slog.Error("[CommentBatchConsumer] Dropping malformed batch",
				slog.String("key", string(msg.Key)),
				slog.String("error", err.Error()))
		}

		if err := committer.Commit(msg); err != nil {
			utils.HandleConsumerError(err)
		}
	}
}

// Handle analyzes one serialized CommentBatch and publishes its result.
func (c *CommentBatchConsumer) Handle(ctx context.Context, value []byte) error {
	var batch models.CommentBatch
	if err := utils.DeserializeFromJSON(value, &batch); err != nil {
		return fmt.Errorf("%w: %w", errMalformedBatch, err)
	}

	if batch.RunID != "" && c.tracker != nil && c.tracker.IsRunCompleted(ctx, batch.RunID) {
		slog.Info("[CommentBatchConsumer] Run already completed, skipping",
			slog.String("run_id", batch.RunID))
		return nil
	}

	result, err := c.analyzer.Run(ctx, batch.Comments, batch.Filters)
	if err != nil {
		return fmt.Errorf("[CommentBatchConsumer] run %s: %w", batch.RunID, err)
	}
	if batch.RunID != "" {
		result.RunID = batch.RunID
	}
	result.PostID = batch.PostID

	if c.sink != nil {
		if err := c.sink.BatchInsertResultRows(ctx, result.RunID, result.PostID, result.Rows); err != nil {
			return err
		}
	}

	payload, err := utils.SerializeToJSON(result)
	if err != nil {
		return err
	}
	if err := c.publisher.Publish(ctx, c.resultsTopic, []byte(result.RunID), payload); err != nil {
		return err
	}

	if c.tracker != nil {
		if err := c.tracker.MarkRunCompleted(ctx, result.RunID); err != nil {
			slog.Warn("[CommentBatchConsumer] Failed to mark run completed",
				slog.String("run_id", result.RunID),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[CommentBatchConsumer] Published run results",
		slog.String("run_id", result.RunID),
		slog.String("post_id", result.PostID),
		slog.Int("rows", len(result.Rows)))
	return nil
}

var errMalformedBatch = errors.New("malformed comment batch")

func isPoison(err error) bool {
	return errors.Is(err, errMalformedBatch) ||
		errors.Is(err, sentiment.ErrInvalidFilters) ||
		errors.Is(err, sentiment.ErrClassifierContractViolation)
}
