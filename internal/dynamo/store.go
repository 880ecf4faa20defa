// Package dynamo implements the persistent store collaborator on DynamoDB.
//
// Table layout: partition key "name" (S), sort key "version" (S), plus binary
// attributes "key" (wrapped data key), "contents" (ciphertext) and "hmac"
// (integrity tag). Versions are zero-padded, so DynamoDB's lexicographic sort
// key ordering is numeric ordering. The conditional put on
// attribute_not_exists is the store's only synchronization primitive; racing
// auto-increment writers lose with a ConflictError instead of overwriting.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/systmms/credstore/internal/awsclient"
	crederrors "github.com/systmms/credstore/internal/errors"
	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/store"
)

// DynamoDBClientAPI is the subset of the AWS DynamoDB client used by this
// package. Narrow so tests can inject a fake.
type DynamoDBClientAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// record is the DynamoDB item shape for one credential version.
type record struct {
	Name     string `dynamodbav:"name"`
	Version  string `dynamodbav:"version"`
	Key      []byte `dynamodbav:"key"`
	Contents []byte `dynamodbav:"contents"`
	HMAC     []byte `dynamodbav:"hmac"`
}

func (r record) credential() credential.Credential {
	return credential.Credential{
		Name:         r.Name,
		Version:      r.Version,
		WrappedKey:   r.Key,
		Ciphertext:   r.Contents,
		IntegrityTag: r.HMAC,
	}
}

// "name" is a DynamoDB reserved word; alias both key attributes for
// consistency.
var keyAttributeNames = map[string]string{"#n": "name", "#v": "version"}

// Store implements store.Store on a DynamoDB table.
type Store struct {
	client DynamoDBClientAPI
	table  string
}

// Option is a functional option for configuring the store.
type Option func(*Store)

// WithDynamoDBClient sets a custom DynamoDB client (for testing).
func WithDynamoDBClient(client DynamoDBClientAPI) Option {
	return func(s *Store) {
		s.client = client
	}
}

// New creates a DynamoDB-backed store for the given table. Without a
// WithDynamoDBClient option a real client is built from the default AWS
// config chain plus the given overrides.
func New(ctx context.Context, table string, awsOpts awsclient.Options, opts ...Option) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name must not be empty")
	}

	s := &Store{table: table}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := awsclient.Load(ctx, awsOpts)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*dynamodb.Options)
		if awsOpts.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *dynamodb.Options) {
				o.BaseEndpoint = aws.String(awsOpts.Endpoint)
			})
		}
		s.client = dynamodb.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// PutItem persists one credential version. With ifAbsent the write is
// conditional on (name, version) not existing; a lost race surfaces as
// store.ConflictError.
func (s *Store) PutItem(ctx context.Context, cred credential.Credential, ifAbsent bool) error {
	item, err := attributevalue.MarshalMap(record{
		Name:     cred.Name,
		Version:  cred.Version,
		Key:      cred.WrappedKey,
		Contents: cred.Ciphertext,
		HMAC:     cred.IntegrityTag,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credential item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if ifAbsent {
		input.ConditionExpression = aws.String("attribute_not_exists(#n) AND attribute_not_exists(#v)")
		input.ExpressionAttributeNames = keyAttributeNames
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return store.ConflictError{Name: cred.Name, Version: cred.Version}
		}
		return s.handleError("PutItem", err)
	}
	return nil
}

// GetItem fetches one credential version, or store.ErrItemNotFound.
func (s *Store) GetItem(ctx context.Context, name, version string) (credential.Credential, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            itemKey(name, version),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return credential.Credential{}, s.handleError("GetItem", err)
	}
	if len(out.Item) == 0 {
		return credential.Credential{}, store.ErrItemNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return credential.Credential{}, fmt.Errorf("failed to unmarshal credential item: %w", err)
	}
	return rec.credential(), nil
}

// QueryVersions enumerates every stored version of name via a paginated key
// query projecting only the sort key. Early termination by the consumer stops
// pagination.
func (s *Store) QueryVersions(ctx context.Context, name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var startKey map[string]types.AttributeValue
		for {
			out, err := s.client.Query(ctx, &dynamodb.QueryInput{
				TableName:                 aws.String(s.table),
				KeyConditionExpression:    aws.String("#n = :name"),
				ExpressionAttributeNames:  keyAttributeNames,
				ExpressionAttributeValues: map[string]types.AttributeValue{":name": &types.AttributeValueMemberS{Value: name}},
				ProjectionExpression:      aws.String("#v"),
				ExclusiveStartKey:         startKey,
			})
			if err != nil {
				yield("", s.handleError("Query", err))
				return
			}

			for _, item := range out.Items {
				var rec record
				if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
					yield("", fmt.Errorf("failed to unmarshal version item: %w", err))
					return
				}
				if !yield(rec.Version, nil) {
					return
				}
			}

			if len(out.LastEvaluatedKey) == 0 {
				return
			}
			startKey = out.LastEvaluatedKey
		}
	}
}

// ScanAll enumerates every stored credential version via a paginated scan.
// Concurrent writes during the scan may or may not be observed.
func (s *Store) ScanAll(ctx context.Context) iter.Seq2[credential.Credential, error] {
	return func(yield func(credential.Credential, error) bool) {
		var startKey map[string]types.AttributeValue
		for {
			out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
				TableName:         aws.String(s.table),
				ExclusiveStartKey: startKey,
			})
			if err != nil {
				yield(credential.Credential{}, s.handleError("Scan", err))
				return
			}

			for _, item := range out.Items {
				var rec record
				if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
					yield(credential.Credential{}, fmt.Errorf("failed to unmarshal credential item: %w", err))
					return
				}
				if !yield(rec.credential(), nil) {
					return
				}
			}

			if len(out.LastEvaluatedKey) == 0 {
				return
			}
			startKey = out.LastEvaluatedKey
		}
	}
}

// DeleteAllVersions removes every version of name. Deleting a name with no
// versions is a no-op, never an error.
func (s *Store) DeleteAllVersions(ctx context.Context, name string) error {
	for version, err := range s.QueryVersions(ctx, name) {
		if err != nil {
			return err
		}
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key:       itemKey(name, version),
		})
		if err != nil {
			return s.handleError("DeleteItem", err)
		}
	}
	return nil
}

// Setup creates the credential table if it does not exist and waits for it to
// become active. Returns true when a table was created.
func (s *Store) Setup(ctx context.Context, readCapacity, writeCapacity int64) (bool, error) {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		return false, nil
	}
	var rnf *types.ResourceNotFoundException
	if !errors.As(err, &rnf) {
		return false, s.handleError("DescribeTable", err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("name"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("version"), KeyType: types.KeyTypeRange},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("name"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("version"), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(readCapacity),
			WriteCapacityUnits: aws.Int64(writeCapacity),
		},
	})
	if err != nil {
		return false, s.handleError("CreateTable", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, 2*time.Minute); err != nil {
		return true, fmt.Errorf("table %s created but not active: %w", s.table, err)
	}
	return true, nil
}

func itemKey(name, version string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name":    &types.AttributeValueMemberS{Value: name},
		"version": &types.AttributeValueMemberS{Value: version},
	}
}

func (s *Store) handleError(operation string, err error) error {
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return crederrors.UserError{
			Message:    fmt.Sprintf("credential table %q does not exist", s.table),
			Suggestion: "Run 'credstore setup' to create it",
			Err:        err,
		}
	}
	return crederrors.AWSError("dynamodb", operation, err)
}
