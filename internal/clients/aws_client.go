package clients

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

var (
	awsCfg     aws.Config
	awsCfgErr  error
	awsOnce    sync.Once
	awsBaseURL string
)

// GetAWSConfig loads the default credential chain once. An endpoint points
// clients at DynamoDB Local or another emulator.
func GetAWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	awsOnce.Do(func() {
		slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", region))
		awsCfg, awsCfgErr = config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if awsCfgErr != nil {
			awsCfgErr = fmt.Errorf("[AWSClient] Failed to load AWS config: %w", awsCfgErr)
			return
		}
		awsBaseURL = endpoint
		slog.Info("[AWSClient] AWS Config Initialized")
	})
	return awsCfg, awsCfgErr
}

func GetDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := GetAWSConfig(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if awsBaseURL != "" {
			o.BaseEndpoint = aws.String(awsBaseURL)
		}
	}), nil
}
