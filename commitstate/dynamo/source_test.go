package dynamo

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	// beforePut runs before the conditional check, to simulate a racing writer.
	beforePut func()
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.beforePut != nil {
		hook := m.beforePut
		m.beforePut = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := params.Item[attrLogID].(*types.AttributeValueMemberS).Value
	seq := params.Item[attrSeq].(*types.AttributeValueMemberN).Value
	key := id + ":" + seq

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(seq)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := params.ExpressionAttributeValues[":id"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item[attrLogID].(*types.AttributeValueMemberS).Value == id {
			items = append(items, item)
		}
	}
	seqOf := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item[attrSeq].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool { return seqOf(items[i]) > seqOf(items[j]) })

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func TestSource_CurrentEmpty(t *testing.T) {
	s := New(newMockDDBClient(), "commits", "log-a")

	seq, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
}

func TestSource_Advance(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	s := New(client, "commits", "log-a")

	for want := uint64(1); want <= 12; want++ {
		got, err := s.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	seq, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), seq)

	// Other logs are independent.
	other := New(client, "commits", "log-b")
	seq, err = other.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
}

func TestSource_ConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	a := New(client, "commits", "log-a")
	b := New(client, "commits", "log-a")

	client.beforePut = func() {
		_, err := b.Advance(ctx)
		require.NoError(t, err)
	}

	_, err := a.Advance(ctx)
	assert.ErrorIs(t, err, ErrConcurrentAdvance)

	seq, err := a.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

type failingDDBClient struct {
	mock.Mock
}

func (m *failingDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *failingDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func TestSource_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("throttled")

	t.Run("query", func(t *testing.T) {
		client := new(failingDDBClient)
		client.On("Query", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := New(client, "commits", "log-a").Current(ctx)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("put", func(t *testing.T) {
		client := new(failingDDBClient)
		client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{}, nil)
		client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return aws.ToString(in.TableName) == "commits"
		})).Return(nil, boom)

		_, err := New(client, "commits", "log-a").Advance(ctx)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrConcurrentAdvance)
		client.AssertExpectations(t)
	})

	t.Run("bad attribute", func(t *testing.T) {
		client := new(failingDDBClient)
		client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{attrSeq: &types.AttributeValueMemberS{Value: "1"}},
			},
		}, nil)

		_, err := New(client, "commits", "log-a").Current(ctx)
		assert.Error(t, err)
	})
}
