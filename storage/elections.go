package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

type ElectionStorage interface {
	Get(ctx context.Context, id string) (*Election, error)
	GetAll(ctx context.Context) ([]*Election, error)
	GetByStatus(ctx context.Context, status string) ([]*Election, error)
	Create(ctx context.Context, election *Election) error
	Update(ctx context.Context, election *Election) error
	Delete(ctx context.Context, id string) error
}

type DynamoElectionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoElectionStorage) Get(ctx context.Context, id string) (*Election, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: GetItem for %s failed: %v", id, err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var election Election
	if err := attributevalue.UnmarshalMap(out.Item, &election); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal election: %v", err)
		return nil, err
	}
	return &election, nil
}

func (s *DynamoElectionStorage) GetAll(ctx context.Context) ([]*Election, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.TableName,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: scan failed: %v", err)
		return nil, err
	}

	var elections []*Election
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &elections); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal election list: %v", err)
		return nil, err
	}
	return elections, nil
}

func (s *DynamoElectionStorage) GetByStatus(ctx context.Context, status string) ([]*Election, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("#st = :status"),
		ExpressionAttributeNames: map[string]string{
			"#st": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: scan by status %s failed: %v", status, err)
		return nil, err
	}

	var elections []*Election
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &elections); err != nil {
		logging.Log.Errorf("ELECTION: failed to unmarshal election list: %v", err)
		return nil, err
	}
	return elections, nil
}

func (s *DynamoElectionStorage) Create(ctx context.Context, election *Election) error {
	if election.CreatedAt.IsZero() {
		election.CreatedAt = time.Now().UTC()
	}
	election.UpdatedAt = election.CreatedAt

	item, err := attributevalue.MarshalMap(election)
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal election: %v", err)
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
		logging.Log.Errorf("ELECTION: failed to create election: %v", err)
		return err
	}
	return nil
}

func (s *DynamoElectionStorage) Update(ctx context.Context, election *Election) error {
	election.UpdatedAt = time.Now().UTC()

	item, err := attributevalue.MarshalMap(election)
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal election: %v", err)
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
		logging.Log.Errorf("ELECTION: failed to update election: %v", err)
		return err
	}
	return nil
}

func (s *DynamoElectionStorage) Delete(ctx context.Context, id string) error {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": id})
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to marshal key: %v", err)
		return err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("ELECTION: delete failed: %v", err)
		return err
	}
	return nil
}
