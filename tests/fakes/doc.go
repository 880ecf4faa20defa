// Package fakes provides in-memory fakes for the credstore collaborators.
//
// Two levels are covered. FakeKeyService and MemoryStore implement the
// pkg/keyservice and pkg/store contracts directly and back the facade and
// cipher tests; FakeKMSClient and FakeDynamoDBClient imitate the AWS SDK
// client surface consumed by internal/kms and internal/dynamo, including
// context binding, conditional writes, and pagination, so the adapters can be
// tested without network access.
package fakes
