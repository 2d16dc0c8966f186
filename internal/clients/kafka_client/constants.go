package kafka_client

import "time"

const (
	KAFKA_TOPIC_COMMENT_BATCHES   = "comment-batches"   // {run_id, post_id, filters, comments} to analyze
	KAFKA_TOPIC_SENTIMENT_RESULTS = "sentiment-results" // rows and totals of a finished run
)

const (
	MAX_RETRIES = 5
	RETRY_DELAY = 2 * time.Second

	flushTimeoutMs = 5000
)
