package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

type VoteStorage interface {
	// Create inserts a vote and returns ErrDuplicateItem when a vote with
	// the same (token, sort key) already exists. The conditional put is the
	// race-free backstop for the one-vote-per-position invariant.
	Create(ctx context.Context, vote *Vote) error
	GetByID(ctx context.Context, voteID string) (*Vote, error)
	GetByToken(ctx context.Context, token string) ([]*Vote, error)
	GetByTokenAndPosition(ctx context.Context, token, positionID string) ([]*Vote, error)
	GetByElection(ctx context.Context, electionID string) ([]*Vote, error)
	UpdateVerification(ctx context.Context, vote *Vote) error
	Delete(ctx context.Context, token, sortKey string) error
}

type DynamoVoteStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoVoteStorage) Create(ctx context.Context, vote *Vote) error {
	item, err := attributevalue.MarshalMap(vote)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to marshal vote: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.TableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrDuplicateItem
		}
		logging.Log.Errorf("VOTE: failed to create vote: %v", err)
		return err
	}
	return nil
}

func (s *DynamoVoteStorage) GetByID(ctx context.Context, voteID string) (*Vote, error) {
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.TableName,
			ExclusiveStartKey: lastEvaluatedKey,
			FilterExpression:  aws.String("VoteID = :vote"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":vote": &types.AttributeValueMemberS{Value: voteID},
			},
		})
		if err != nil {
			logging.Log.Errorf("VOTE: scan by id failed: %v", err)
			return nil, err
		}

		if len(out.Items) > 0 {
			var vote Vote
			if err := attributevalue.UnmarshalMap(out.Items[0], &vote); err != nil {
				logging.Log.Errorf("VOTE: failed to unmarshal vote: %v", err)
				return nil, err
			}
			return &vote, nil
		}

		if out.LastEvaluatedKey == nil {
			return nil, ErrItemNotFound
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}
}

func (s *DynamoVoteStorage) GetByToken(ctx context.Context, token string) ([]*Vote, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :token"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to query votes by token: %v", err)
		return nil, err
	}

	var votes []*Vote
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
		return nil, err
	}
	return votes, nil
}

func (s *DynamoVoteStorage) GetByTokenAndPosition(ctx context.Context, token, positionID string) ([]*Vote, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :token AND begins_with(SK, :position)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token":    &types.AttributeValueMemberS{Value: token},
			":position": &types.AttributeValueMemberS{Value: VotePositionSortKey(positionID)},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to query votes by token and position: %v", err)
		return nil, err
	}

	var votes []*Vote
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &votes); err != nil {
		logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
		return nil, err
	}
	return votes, nil
}

func (s *DynamoVoteStorage) GetByElection(ctx context.Context, electionID string) ([]*Vote, error) {
	var votes []*Vote
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.TableName,
			ExclusiveStartKey: lastEvaluatedKey,
			FilterExpression:  aws.String("ElectionID = :election"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":election": &types.AttributeValueMemberS{Value: electionID},
			},
		})
		if err != nil {
			logging.Log.Errorf("VOTE: scan by election failed: %v", err)
			return nil, err
		}

		var page []*Vote
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("VOTE: failed to unmarshal vote list: %v", err)
			return nil, err
		}
		votes = append(votes, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}

	return votes, nil
}

func (s *DynamoVoteStorage) UpdateVerification(ctx context.Context, vote *Vote) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: vote.AnonymousToken},
			"SK": &types.AttributeValueMemberS{Value: vote.SortKey},
		},
		UpdateExpression: aws.String("SET SignatureVerified = :sig, IntegrityVerified = :intg"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sig":  &types.AttributeValueMemberBOOL{Value: vote.SignatureVerified},
			":intg": &types.AttributeValueMemberBOOL{Value: vote.IntegrityVerified},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: failed to update verification flags: %v", err)
	}
	return err
}

func (s *DynamoVoteStorage) Delete(ctx context.Context, token, sortKey string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.TableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: token},
			"SK": &types.AttributeValueMemberS{Value: sortKey},
		},
	})
	if err != nil {
		logging.Log.Errorf("VOTE: delete failed: %v", err)
		return err
	}
	return nil
}
