package fakes

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"maps"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// FakeKMSClient imitates the AWS KMS client surface consumed by
// internal/kms. Generated data keys carry their encryption context inside
// the fake ciphertext blob, so Decrypt enforces context binding with a real
// InvalidCiphertextException, exercising the adapter's error mapping.
type FakeKMSClient struct {
	mu sync.Mutex

	// GenerateDataKeyFunc and DecryptFunc allow custom behavior per call.
	GenerateDataKeyFunc func(ctx context.Context, params *kms.GenerateDataKeyInput) (*kms.GenerateDataKeyOutput, error)
	DecryptFunc         func(ctx context.Context, params *kms.DecryptInput) (*kms.DecryptOutput, error)

	// GenerateErr and DecryptErr, when set, are returned verbatim.
	GenerateErr error
	DecryptErr  error

	// GenerateCalls and DecryptCalls count invocations.
	GenerateCalls int
	DecryptCalls  int
}

// NewFakeKMSClient creates a new fake KMS client.
func NewFakeKMSClient() *FakeKMSClient {
	return &FakeKMSClient{}
}

// fakeBlob is the fake ciphertext blob format.
type fakeBlob struct {
	KeyID   string            `json:"key_id"`
	Key     []byte            `json:"key"`
	Context map[string]string `json:"context,omitempty"`
}

func (f *FakeKMSClient) GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, _ ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++

	if f.GenerateDataKeyFunc != nil {
		return f.GenerateDataKeyFunc(ctx, params)
	}
	if f.GenerateErr != nil {
		return nil, f.GenerateErr
	}

	n := int32(32)
	if params.NumberOfBytes != nil {
		n = *params.NumberOfBytes
	}
	plaintext := make([]byte, n)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, err
	}

	blob, err := json.Marshal(fakeBlob{
		KeyID:   aws.ToString(params.KeyId),
		Key:     plaintext,
		Context: params.EncryptionContext,
	})
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return &kms.GenerateDataKeyOutput{
		KeyId:          params.KeyId,
		Plaintext:      out,
		CiphertextBlob: blob,
	}, nil
}

func (f *FakeKMSClient) Decrypt(ctx context.Context, params *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DecryptCalls++

	if f.DecryptFunc != nil {
		return f.DecryptFunc(ctx, params)
	}
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}

	var blob fakeBlob
	if err := json.Unmarshal(params.CiphertextBlob, &blob); err != nil {
		return nil, &types.InvalidCiphertextException{Message: aws.String("malformed ciphertext")}
	}
	if !maps.Equal(blob.Context, params.EncryptionContext) {
		return nil, &types.InvalidCiphertextException{Message: aws.String("encryption context mismatch")}
	}

	out := make([]byte, len(blob.Key))
	copy(out, blob.Key)
	return &kms.DecryptOutput{
		KeyId:     aws.String(blob.KeyID),
		Plaintext: out,
	}, nil
}
