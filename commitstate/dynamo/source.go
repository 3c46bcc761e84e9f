package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/walcache/commitstate"
)

// DDBClient is the subset of the DynamoDB API used by Source.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentAdvance is returned when another writer advanced the commit
// state between the read and the conditional write.
var ErrConcurrentAdvance = errors.New("dynamo: concurrent commit-state advance")

const (
	attrLogID     = "log_id"
	attrSeq       = "seq"
	attrCreatedAt = "created_at"
)

// Source is a commitstate.Advancer backed by a DynamoDB table.
type Source struct {
	client    DDBClient
	tableName string
	logID     string
	now       func() time.Time
}

// New returns a Source for logID stored in tableName.
func New(client DDBClient, tableName, logID string) *Source {
	return &Source{
		client:    client,
		tableName: tableName,
		logID:     logID,
		now:       time.Now,
	}
}

// Current returns the latest committed sequence number, or 0 when the log has
// no commit state yet.
func (s *Source) Current(ctx context.Context) (uint64, error) {
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("log_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: s.logID},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("query commit state: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, nil
	}

	attr, ok := resp.Items[0][attrSeq].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("dynamo: invalid seq attribute")
	}
	seq, err := strconv.ParseUint(attr.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse seq: %w", err)
	}
	return seq, nil
}

// Advance commits Current()+1. If another writer committed the same number
// first, ErrConcurrentAdvance is returned and the caller may retry.
func (s *Source) Advance(ctx context.Context) (uint64, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	next := cur + 1

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrLogID:     &types.AttributeValueMemberS{Value: s.logID},
			attrSeq:       &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			attrCreatedAt: &types.AttributeValueMemberS{Value: s.now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_not_exists(seq)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentAdvance
		}
		return 0, fmt.Errorf("commit seq %d: %w", next, err)
	}
	return next, nil
}

var _ commitstate.Advancer = (*Source)(nil)
