package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

type ElectionResultStorage interface {
	Get(ctx context.Context, electionID string) (*ElectionResult, error)
	Put(ctx context.Context, result *ElectionResult) error
}

type DynamoElectionResultStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoElectionResultStorage) Get(ctx context.Context, electionID string) (*ElectionResult, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": electionID})
	if err != nil {
		logging.Log.Errorf("RESULT: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("RESULT: GetItem failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var result ElectionResult
	if err := attributevalue.UnmarshalMap(out.Item, &result); err != nil {
		logging.Log.Errorf("RESULT: failed to unmarshal result: %v", err)
		return nil, err
	}
	return &result, nil
}

func (s *DynamoElectionResultStorage) Put(ctx context.Context, result *ElectionResult) error {
	item, err := attributevalue.MarshalMap(result)
	if err != nil {
		logging.Log.Errorf("RESULT: failed to marshal result: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("RESULT: failed to put result: %v", err)
		return err
	}
	return nil
}
