package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentai/internal/models"
)

const (
	RESULTS_TABLE_NAME = "CommentSentimentResults"

	maxBatchSize   = 25
	maxBatchRetry  = 3
	resultsTTL     = 7 * 24 * time.Hour
	initialBackoff = 500 * time.Millisecond
)

// DynamoAPI is the part of the DynamoDB client the store uses.
type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type ResultStore struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

func NewResultStore(client DynamoAPI, table string) *ResultStore {
	if table == "" {
		table = RESULTS_TABLE_NAME
	}
	return &ResultStore{client: client, table: table, now: time.Now}
}

// storedRow is one ResultRow as it sits in the table: partition key run_id,
// sort key row_index so a run reads back in output order.
type storedRow struct {
	RunID          string  `dynamodbav:"run_id"`
	RowIndex       int     `dynamodbav:"row_index"`
	PostID         string  `dynamodbav:"post_id,omitempty"`
	SentimentLabel string  `dynamodbav:"sentiment_label"`
	SentimentScore float64 `dynamodbav:"sentiment_score"`
	OriginalText   string  `dynamodbav:"original_text"`
	TranslatedText string  `dynamodbav:"translated_text"`
	Author         string  `dynamodbav:"author"`
	Parent         string  `dynamodbav:"parent"`
	Timestamp      int64   `dynamodbav:"timestamp"`
	CreatedAt      int64   `dynamodbav:"created_at"`
	TTL            int64   `dynamodbav:"ttl"`
}

func ResultRowToDynamoDBItem(runID, postID string, index int, row models.ResultRow, now time.Time) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(storedRow{
		RunID:          runID,
		RowIndex:       index,
		PostID:         postID,
		SentimentLabel: string(row.Label),
		SentimentScore: row.Score,
		OriginalText:   row.OriginalText,
		TranslatedText: row.TranslatedText,
		Author:         row.Author,
		Parent:         row.Parent,
		Timestamp:      row.Timestamp.Unix(),
		CreatedAt:      now.Unix(),
		TTL:            now.Add(resultsTTL).Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] marshal row %d: %w", index, err)
	}
	return item, nil
}

// BatchInsertResultRows writes rows in batches of 25, retrying unprocessed
// items with backoff.
func (s *ResultStore) BatchInsertResultRows(ctx context.Context, runID, postID string, rows []models.ResultRow) error {
	now := s.now()

	for i := 0; i < len(rows); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchSize, len(rows))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for j := i; j < end; j++ {
			item, err := ResultRowToDynamoDBItem(runID, postID, j, rows[j], now)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeBatch(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored sentiment results",
		slog.String("run_id", runID),
		slog.Int("rows", len(rows)))
	return nil
}

func (s *ResultStore) writeBatch(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write sentiment results: %w", err)
	}

	backoff := initialBackoff
	for retry := 0; len(out.UnprocessedItems[s.table]) > 0 && retry < maxBatchRetry; retry++ {
		slog.Warn("[DynamoDB] Retrying unprocessed sentiment items...",
			slog.Int("attempt", retry+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error %w", err)
		}
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d sentiment items not written after %d retries", remaining, maxBatchRetry)
	}
	return nil
}

// GetRunRows reads a stored run back in row order.
func (s *ResultStore) GetRunRows(ctx context.Context, runID string) ([]models.ResultRow, error) {
	var rows []models.ResultRow

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("run_id = :run"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":run": &types.AttributeValueMemberS{Value: runID},
		},
		ScanIndexForward: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Query for run %s failed: %w", runID, err)
		}

		var page []storedRow
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal result page", slog.String("error", err.Error()))
			return nil, err
		}
		for _, stored := range page {
			rows = append(rows, models.ResultRow{
				Label:          models.Label(stored.SentimentLabel),
				Score:          stored.SentimentScore,
				OriginalText:   stored.OriginalText,
				TranslatedText: stored.TranslatedText,
				Author:         stored.Author,
				Parent:         stored.Parent,
				Timestamp:      time.Unix(stored.Timestamp, 0).UTC(),
			})
		}
	}

	slog.Info("[DynamoDB] Retrieved run rows",
		slog.String("run_id", runID),
		slog.Int("count", len(rows)))
	return rows, nil
}
