package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/okian/klv/internal/domain/model"
)

const (
	backendDynamoDB   = "dynamodb"
	defaultMaxRetries = 5
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain. A non-empty endpoint points the client at a local DynamoDB.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// DynamoStore keeps one item per athlete keyed by PK. Writes use a Version
// attribute for optimistic concurrency.
type DynamoStore struct {
	client     DynamoAPI
	table      string
	maxRetries int
}

// NewDynamoStore creates a store on table.
func NewDynamoStore(client DynamoAPI, table string, opts ...DynamoOption) *DynamoStore {
	s := &DynamoStore{
		client:     client,
		table:      table,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DynamoStore) List(ctx context.Context) ([]model.Athlete, error) {
	defer observe(backendDynamoDB, "list", time.Now())
	var (
		out   []model.Athlete
		start map[string]types.AttributeValue
	)
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("scan athletes: %w", err)
		}
		var docs []Document
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &docs); err != nil {
			return nil, fmt.Errorf("decode athletes: %w", err)
		}
		for _, d := range docs {
			out = append(out, DecodeDocument(d))
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		start = page.LastEvaluatedKey
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *DynamoStore) Get(ctx context.Context, key string) (model.Athlete, error) {
	defer observe(backendDynamoDB, "get", time.Now())
	d, err := s.get(ctx, key)
	if err != nil {
		return model.Athlete{}, err
	}
	return DecodeDocument(d), nil
}

func (s *DynamoStore) get(ctx context.Context, key string) (Document, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            pk(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Document{}, fmt.Errorf("get athlete %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	var d Document
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return Document{}, fmt.Errorf("decode athlete %s: %w", key, err)
	}
	return d, nil
}

func (s *DynamoStore) Create(ctx context.Context, a model.Athlete) error {
	defer observe(backendDynamoDB, "create", time.Now())
	if a.Key == "" {
		return ErrInvalidKey
	}
	d := EncodeDocument(a)
	d.Version = 1
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("encode athlete %s: %w", a.Key, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, a.Key)
	}
	if err != nil {
		return fmt.Errorf("put athlete %s: %w", a.Key, err)
	}
	return nil
}

func (s *DynamoStore) Update(ctx context.Context, key string, fn func(*model.Athlete) error) (model.Athlete, error) {
	defer observe(backendDynamoDB, "update", time.Now())
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		cur, err := s.get(ctx, key)
		if err != nil {
			return model.Athlete{}, err
		}
		a := DecodeDocument(cur)
		if err := fn(&a); err != nil {
			return model.Athlete{}, err
		}
		a.Key = key

		next := EncodeDocument(a)
		next.Version = cur.Version + 1
		item, err := attributevalue.MarshalMap(next)
		if err != nil {
			return model.Athlete{}, fmt.Errorf("encode athlete %s: %w", key, err)
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(s.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(PK) AND Version = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(cur.Version, 10)},
			},
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return model.Athlete{}, fmt.Errorf("put athlete %s: %w", key, err)
		}
		return a, nil
	}
	return model.Athlete{}, fmt.Errorf("%w: %s after %d attempts", ErrConflict, key, s.maxRetries)
}

func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	defer observe(backendDynamoDB, "delete", time.Now())
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 pk(key),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("delete athlete %s: %w", key, err)
	}
	return nil
}

func (s *DynamoStore) Count(ctx context.Context) (int, error) {
	defer observe(backendDynamoDB, "count", time.Now())
	var (
		n     int
		start map[string]types.AttributeValue
	)
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			Select:            types.SelectCount,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return 0, fmt.Errorf("count athletes: %w", err)
		}
		n += int(page.Count)
		if len(page.LastEvaluatedKey) == 0 {
			return n, nil
		}
		start = page.LastEvaluatedKey
	}
}

func pk(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"PK": &types.AttributeValueMemberS{Value: key}}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
