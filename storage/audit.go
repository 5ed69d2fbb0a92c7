package storage

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/manaf-dev/gmsa-voting-app/logging"
)

// AuditLogStorage is append-only by contract: there is no update or delete
// surface, and Append refuses to overwrite an existing entry.
type AuditLogStorage interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	GetByResource(ctx context.Context, resourceKey string, limit int) ([]*AuditLogEntry, error)
	GetByActor(ctx context.Context, actorID string, limit int) ([]*AuditLogEntry, error)
	GetByTimeRange(ctx context.Context, from, to time.Time, limit int) ([]*AuditLogEntry, error)
}

type DynamoAuditLogStorage struct {
	Client    *dynamodb.Client
	TableName string
}

func (s *DynamoAuditLogStorage) Append(ctx context.Context, entry *AuditLogEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		logging.Log.Errorf("AUDIT: failed to marshal entry: %v", err)
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
		logging.Log.Errorf("AUDIT: failed to append entry: %v", err)
		return err
	}
	return nil
}

func (s *DynamoAuditLogStorage) GetByResource(ctx context.Context, resourceKey string, limit int) ([]*AuditLogEntry, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.TableName,
		KeyConditionExpression: aws.String("PK = :resource"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":resource": &types.AttributeValueMemberS{Value: resourceKey},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		logging.Log.Errorf("AUDIT: query by resource failed: %v", err)
		return nil, err
	}

	var entries []*AuditLogEntry
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &entries); err != nil {
		logging.Log.Errorf("AUDIT: failed to unmarshal entries: %v", err)
		return nil, err
	}
	return entries, nil
}

func (s *DynamoAuditLogStorage) GetByActor(ctx context.Context, actorID string, limit int) ([]*AuditLogEntry, error) {
	var entries []*AuditLogEntry
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.TableName,
			ExclusiveStartKey: lastEvaluatedKey,
			FilterExpression:  aws.String("ActorID = :actor"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":actor": &types.AttributeValueMemberS{Value: actorID},
			},
		})
		if err != nil {
			logging.Log.Errorf("AUDIT: scan by actor failed: %v", err)
			return nil, err
		}

		var page []*AuditLogEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("AUDIT: failed to unmarshal entries: %v", err)
			return nil, err
		}
		entries = append(entries, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}

	return sortAndCap(entries, limit), nil
}

func (s *DynamoAuditLogStorage) GetByTimeRange(ctx context.Context, from, to time.Time, limit int) ([]*AuditLogEntry, error) {
	var entries []*AuditLogEntry
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         &s.TableName,
			ExclusiveStartKey: lastEvaluatedKey,
			FilterExpression:  aws.String("#ts BETWEEN :from AND :to"),
			ExpressionAttributeNames: map[string]string{
				"#ts": "Timestamp",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":from": &types.AttributeValueMemberS{Value: from.UTC().Format(time.RFC3339Nano)},
				":to":   &types.AttributeValueMemberS{Value: to.UTC().Format(time.RFC3339Nano)},
			},
		})
		if err != nil {
			logging.Log.Errorf("AUDIT: scan by time range failed: %v", err)
			return nil, err
		}

		var page []*AuditLogEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			logging.Log.Errorf("AUDIT: failed to unmarshal entries: %v", err)
			return nil, err
		}
		entries = append(entries, page...)

		if out.LastEvaluatedKey == nil {
			break
		}
		lastEvaluatedKey = out.LastEvaluatedKey
	}

	return sortAndCap(entries, limit), nil
}

// sortAndCap orders entries newest-first and bounds the page size.
func sortAndCap(entries []*AuditLogEntry, limit int) []*AuditLogEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
