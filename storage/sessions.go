package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

type VotingSessionStorage interface {
	Get(ctx context.Context, voterID, electionID string) (*VotingSession, error)
	Put(ctx context.Context, session *VotingSession) error
	GetSuspicious(ctx context.Context) ([]*VotingSession, error)
}

type DynamoVotingSessionStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVotingSessionStorage) Get(ctx context.Context, voterID, electionID string) (*VotingSession, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": SessionKey(voterID, electionID)})
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.TableName,
		Key:       key,
	})
	if err != nil {
		logging.Log.Errorf("SESSION: GetItem failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var session VotingSession
	if err := attributevalue.UnmarshalMap(out.Item, &session); err != nil {
		logging.Log.Errorf("SESSION: failed to unmarshal session: %v", err)
		return nil, err
	}
	return &session, nil
}

func (s *DynamoVotingSessionStorage) Put(ctx context.Context, session *VotingSession) error {
	session.SessionKey = SessionKey(session.VoterID, session.ElectionID)

	item, err := attributevalue.MarshalMap(session)
	if err != nil {
		logging.Log.Errorf("SESSION: failed to marshal session: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      item,
	})
	if err != nil {
		logging.Log.Errorf("SESSION: failed to put session: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVotingSessionStorage) GetSuspicious(ctx context.Context) ([]*VotingSession, error) {
	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.TableName,
		FilterExpression: aws.String("Suspicious = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		logging.Log.Errorf("SESSION: scan for suspicious sessions failed: %v", err)
		return nil, err
	}

	var sessions []*VotingSession
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		logging.Log.Errorf("SESSION: failed to unmarshal session list: %v", err)
		return nil, err
	}
	return sessions, nil
}
