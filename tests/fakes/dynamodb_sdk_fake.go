package fakes

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FakeDynamoDBClient imitates the AWS DynamoDB client surface consumed by
// internal/dynamo: conditional writes, key queries, scans and table
// management over a single in-memory table. Set PageSize to force pagination
// so cursor handling is exercised.
type FakeDynamoDBClient struct {
	mu sync.Mutex

	// items maps name -> version -> raw attribute map.
	items map[string]map[string]map[string]types.AttributeValue

	// TableExists reports whether the table has been "created".
	TableExists bool

	// PageSize caps items per Query/Scan page; zero disables pagination.
	PageSize int

	// Errors, when set, are returned verbatim by the matching method.
	PutErr    error
	GetErr    error
	QueryErr  error
	ScanErr   error
	DeleteErr error

	// ScanCalls and QueryCalls count page fetches.
	ScanCalls  int
	QueryCalls int
}

// NewFakeDynamoDBClient creates a fake client with an existing empty table.
func NewFakeDynamoDBClient() *FakeDynamoDBClient {
	return &FakeDynamoDBClient{
		items:       make(map[string]map[string]map[string]types.AttributeValue),
		TableExists: true,
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if av, ok := item[name].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}

func (f *FakeDynamoDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PutErr != nil {
		return nil, f.PutErr
	}

	name := stringAttr(params.Item, "name")
	version := stringAttr(params.Item, "version")

	conditional := params.ConditionExpression != nil &&
		strings.Contains(*params.ConditionExpression, "attribute_not_exists")
	if _, exists := f.items[name][version]; exists && conditional {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	if f.items[name] == nil {
		f.items[name] = make(map[string]map[string]types.AttributeValue)
	}
	f.items[name][version] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *FakeDynamoDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}

	name := stringAttr(params.Key, "name")
	version := stringAttr(params.Key, "version")
	item, ok := f.items[name][version]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *FakeDynamoDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryCalls++

	if f.QueryErr != nil {
		return nil, f.QueryErr
	}

	nameAttr, ok := params.ExpressionAttributeValues[":name"].(*types.AttributeValueMemberS)
	if !ok {
		return &dynamodb.QueryOutput{}, nil
	}

	versions := make([]string, 0, len(f.items[nameAttr.Value]))
	for version := range f.items[nameAttr.Value] {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	start := 0
	if after := stringAttr(params.ExclusiveStartKey, "version"); after != "" {
		start = sort.SearchStrings(versions, after) + 1
	}

	end := len(versions)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := &dynamodb.QueryOutput{}
	for _, version := range versions[start:end] {
		out.Items = append(out.Items, f.items[nameAttr.Value][version])
	}
	if end < len(versions) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"name":    &types.AttributeValueMemberS{Value: nameAttr.Value},
			"version": &types.AttributeValueMemberS{Value: versions[end-1]},
		}
	}
	return out, nil
}

func (f *FakeDynamoDBClient) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ScanCalls++

	if f.ScanErr != nil {
		return nil, f.ScanErr
	}

	type key struct{ name, version string }
	var keys []key
	for name, versions := range f.items {
		for version := range versions {
			keys = append(keys, key{name, version})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].version < keys[j].version
	})

	start := 0
	if afterName := stringAttr(params.ExclusiveStartKey, "name"); afterName != "" {
		afterVersion := stringAttr(params.ExclusiveStartKey, "version")
		start = sort.Search(len(keys), func(i int) bool {
			if keys[i].name != afterName {
				return keys[i].name > afterName
			}
			return keys[i].version > afterVersion
		})
	}

	end := len(keys)
	if f.PageSize > 0 && start+f.PageSize < end {
		end = start + f.PageSize
	}

	out := &dynamodb.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, f.items[k.name][k.version])
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"name":    &types.AttributeValueMemberS{Value: keys[end-1].name},
			"version": &types.AttributeValueMemberS{Value: keys[end-1].version},
		}
	}
	return out, nil
}

func (f *FakeDynamoDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return nil, f.DeleteErr
	}

	name := stringAttr(params.Key, "name")
	version := stringAttr(params.Key, "version")
	delete(f.items[name], version)
	if len(f.items[name]) == 0 {
		delete(f.items, name)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *FakeDynamoDBClient) CreateTable(_ context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TableExists = true
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

func (f *FakeDynamoDBClient) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.TableExists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
		},
	}, nil
}

// ItemCount returns the number of stored (name, version) records.
func (f *FakeDynamoDBClient) ItemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, versions := range f.items {
		n += len(versions)
	}
	return n
}
