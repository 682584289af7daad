package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ObjectStore implements the external object store contract on a DynamoDB
// table. Each blob is one item keyed by PK; there are no cross-item
// guarantees, which matches the contract the backup orchestrator assumes.
type ObjectStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// objectRecord is how blobs are stored in DynamoDB
type objectRecord struct {
	PK        string `dynamodbav:"PK"`
	Value     string `dynamodbav:"Value"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

// NewObjectStore creates a DynamoDB-backed object store
func NewObjectStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *ObjectStore {
	return &ObjectStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Available reports whether the store has a usable client
func (s *ObjectStore) Available() bool {
	return s.client != nil && s.tableName != ""
}

// SetItem stores a blob under a key
func (s *ObjectStore) SetItem(ctx context.Context, key, value string) error {
	record := objectRecord{
		PK:        key,
		Value:     value,
		UpdatedAt: time.Now().Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal object record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

// GetItem retrieves the blob for a key. A missing key yields ("", false, nil).
func (s *ObjectStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	if result.Item == nil {
		return "", false, nil
	}

	var record objectRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal object record: %w", err)
	}

	return record.Value, true, nil
}

// RemoveItem deletes a key
func (s *ObjectStore) RemoveItem(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// GetAllKeys lists every key currently stored
func (s *ObjectStore) GetAllKeys(ctx context.Context) ([]string, error) {
	proj := expression.NamesList(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build projection expression: %w", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                aws.String(s.tableName),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	}

	var keys []string
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object keys: %w", err)
		}

		for _, item := range result.Items {
			var record struct {
				PK string `dynamodbav:"PK"`
			}
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				s.logger.Warn("Skipping malformed object record", zap.Error(err))
				continue
			}
			keys = append(keys, record.PK)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return keys, nil
}
