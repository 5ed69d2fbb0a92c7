package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

type CandidateStorage interface {
	Get(ctx context.Context, id string) (*Candidate, error)
	GetByPosition(ctx context.Context, positionID string) ([]*Candidate, error)
	Create(ctx context.Context, candidate *Candidate) error
	Update(ctx context.Context, candidate *Candidate) error
	Delete(ctx context.Context, id string) error
}

type DynamoCandidateStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoCandidateStorage) Get(ctx context.Context, id string) (*Candidate, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: GetItem for %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var candidate Candidate
	if err := attributevalue.UnmarshalMap(out.Item, &candidate); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to unmarshal candidate: %v", err)
		return nil, err
	}
	return &candidate, nil
}

func (s *DynamoCandidateStorage) GetByPosition(ctx context.Context, positionID string) ([]*Candidate, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("PositionID = :position"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":position": &types.AttributeValueMemberS{Value: positionID},
		},
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: scan by position %s failed: %v", positionID, err)
		return nil, err
	}

	var candidates []*Candidate
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &candidates); err != nil {
		logging.Log.Errorf("CANDIDATE: failed to unmarshal candidate list: %v", err)
		return nil, err
	}
	return candidates, nil
}

func (s *DynamoCandidateStorage) Create(ctx context.Context, candidate *Candidate) error {
	item, err := attributevalue.MarshalMap(candidate)
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal candidate: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrDuplicateItem
		}
		logging.Log.Errorf("CANDIDATE: failed to create candidate: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCandidateStorage) Update(ctx context.Context, candidate *Candidate) error {
	item, err := attributevalue.MarshalMap(candidate)
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal candidate: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrItemNotFound
		}
		logging.Log.Errorf("CANDIDATE: failed to update candidate: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCandidateStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: failed to marshal key: %v", err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("CANDIDATE: delete failed: %v", err)
		return err
	}
	return nil
}
