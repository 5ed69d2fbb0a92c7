package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

// RateLimitStorage provides atomic increment-with-expiry counters. Slight
// overcounting under races is acceptable, undercounting is not.
type RateLimitStorage interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// DynamoRateLimitStorage keeps one counter item per (key, window bucket).
// The ExpiresAt attribute is a DynamoDB TTL so stale windows clean
// themselves up.
type DynamoRateLimitStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoRateLimitStorage) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now().UTC()
	bucket := now.Unix() / int64(window.Seconds())
	pk := fmt.Sprintf("rl#%s#%d", key, bucket)
	expiresAt := (bucket + 2) * int64(window.Seconds())

	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
		},
		UpdateExpression: aws.String("ADD RequestCount :one SET ExpiresAt = if_not_exists(ExpiresAt, :exp)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":exp": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		logging.Log.Warnf("RATELIMIT: counter increment failed: %v", err)
		return 0, err
	}

	count, ok := out.Attributes["RequestCount"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("unexpected counter attribute type")
	}
	return strconv.ParseInt(count.Value, 10, 64)
}
