// Package kms implements the key-management collaborator on AWS KMS.
package kms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/systmms/credstore/internal/awsclient"
	crederrors "github.com/systmms/credstore/internal/errors"
	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/keyservice"
)

// KMSClientAPI is the subset of the AWS KMS client used by this package.
// Narrow so tests can inject a fake.
type KMSClientAPI interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KeyService implements keyservice.KeyService on AWS KMS.
type KeyService struct {
	client KMSClientAPI
}

// Option is a functional option for configuring the key service.
type Option func(*KeyService)

// WithKMSClient sets a custom KMS client (for testing).
func WithKMSClient(client KMSClientAPI) Option {
	return func(s *KeyService) {
		s.client = client
	}
}

// New creates a KMS-backed key service. Without a WithKMSClient option a real
// client is built from the default AWS config chain plus the given overrides.
func New(ctx context.Context, awsOpts awsclient.Options, opts ...Option) (*KeyService, error) {
	s := &KeyService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		cfg, err := awsclient.Load(ctx, awsOpts)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*kms.Options)
		if awsOpts.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *kms.Options) {
				o.BaseEndpoint = aws.String(awsOpts.Endpoint)
			})
		}
		s.client = kms.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// GenerateDataKey requests a fresh data key bound to the encryption context.
func (s *KeyService) GenerateDataKey(ctx context.Context, keyID string, ec credential.Context, numBytes int) (keyservice.DataKey, error) {
	out, err := s.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:             aws.String(keyID),
		EncryptionContext: ec,
		NumberOfBytes:     aws.Int32(int32(numBytes)),
	})
	if err != nil {
		return keyservice.DataKey{}, s.handleError("GenerateDataKey", keyID, err)
	}
	if len(out.Plaintext) != numBytes {
		// Still key material, even at the wrong length.
		memguard.WipeBytes(out.Plaintext)
		return keyservice.DataKey{}, fmt.Errorf("kms returned %d key bytes, want %d", len(out.Plaintext), numBytes)
	}

	return keyservice.DataKey{
		Plaintext: out.Plaintext,
		Wrapped:   out.CiphertextBlob,
	}, nil
}

// Decrypt unwraps a wrapped data key under the encryption context. An
// InvalidCiphertextException from KMS means the context does not match the
// one the key was generated under; it is surfaced as
// keyservice.InvalidCiphertextError so the cipher can hint the caller.
func (s *KeyService) Decrypt(ctx context.Context, keyID string, wrapped []byte, ec credential.Context) ([]byte, error) {
	input := &kms.DecryptInput{
		CiphertextBlob:    wrapped,
		EncryptionContext: ec,
	}
	// The key id is baked into the ciphertext blob for symmetric keys; pass
	// it only when configured so KMS can enforce it.
	if keyID != "" {
		input.KeyId = aws.String(keyID)
	}

	out, err := s.client.Decrypt(ctx, input)
	if err != nil {
		var ice *types.InvalidCiphertextException
		if errors.As(err, &ice) {
			return nil, keyservice.InvalidCiphertextError{KeyID: keyID, Err: err}
		}
		return nil, s.handleError("Decrypt", keyID, err)
	}

	return out.Plaintext, nil
}

// handleError classifies KMS failures, attaching suggestions for the common
// operator mistakes.
func (s *KeyService) handleError(operation, keyID string, err error) error {
	var nfe *types.NotFoundException
	if errors.As(err, &nfe) {
		return crederrors.UserError{
			Message:    fmt.Sprintf("KMS master key %q not found", keyID),
			Suggestion: "Verify the key identifier. List aliases with: 'aws kms list-aliases'",
			Err:        err,
		}
	}
	if isAuthError(err) {
		return crederrors.AWSError("kms", operation, err)
	}
	return fmt.Errorf("kms %s failed: %w", operation, err)
}

func isAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnauthorizedOperation") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "Forbidden")
}
