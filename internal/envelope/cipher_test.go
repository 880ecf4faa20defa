package envelope_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/credstore/internal/envelope"
	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/tests/fakes"
)

const testKeyID = "alias/credstore-test"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret []byte
		ec     credential.Context
	}{
		{name: "simple_secret", secret: []byte("s3cr3t"), ec: credential.Context{"app": "x"}},
		{name: "empty_context", secret: []byte("hunter2"), ec: credential.Context{}},
		{name: "nil_context", secret: []byte("hunter2"), ec: nil},
		{name: "empty_secret", secret: []byte{}, ec: credential.Context{"a": "b"}},
		{name: "binary_secret", secret: []byte{0x00, 0xFF, 0x10, 0x80, 0x00}, ec: credential.Context{"env": "prod", "team": "infra"}},
		{name: "large_secret", secret: []byte(strings.Repeat("block-spanning payload ", 512)), ec: credential.Context{"app": "x"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cipher := envelope.New(fakes.NewFakeKeyService(), testKeyID)

			cred, err := cipher.Encrypt(context.Background(), tt.secret, tt.ec)
			require.NoError(t, err)
			assert.NotEmpty(t, cred.WrappedKey)
			assert.Len(t, cred.IntegrityTag, 32)
			assert.Len(t, cred.Ciphertext, len(tt.secret))
			if len(tt.secret) > 0 {
				assert.NotEqual(t, tt.secret, cred.Ciphertext)
			}

			got, err := cipher.Decrypt(context.Background(), cred, tt.ec)
			require.NoError(t, err)
			assert.Equal(t, tt.secret, got)
		})
	}
}

func TestDecryptContextBinding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		encryptCtx credential.Context
		decryptCtx credential.Context
		wantHint   string
	}{
		{
			name:       "context_dropped",
			encryptCtx: credential.Context{"app": "x"},
			decryptCtx: nil,
			wantHint:   "may require an encryption context",
		},
		{
			name:       "context_mismatch",
			encryptCtx: credential.Context{"app": "x"},
			decryptCtx: credential.Context{"app": "y"},
			wantHint:   "may not match",
		},
		{
			name:       "context_added",
			encryptCtx: nil,
			decryptCtx: credential.Context{"app": "x"},
			wantHint:   "may not match",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cipher := envelope.New(fakes.NewFakeKeyService(), testKeyID)

			cred, err := cipher.Encrypt(context.Background(), []byte("s3cr3t"), tt.encryptCtx)
			require.NoError(t, err)

			_, err = cipher.Decrypt(context.Background(), cred, tt.decryptCtx)
			var de credential.DecryptionError
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Hint, tt.wantHint)
		})
	}
}

func TestDecryptTamperDetection(t *testing.T) {
	t.Parallel()

	mutations := []struct {
		name   string
		mutate func(*credential.Credential)
	}{
		{name: "flip_first_ciphertext_bit", mutate: func(c *credential.Credential) { c.Ciphertext[0] ^= 0x01 }},
		{name: "flip_last_ciphertext_bit", mutate: func(c *credential.Credential) { c.Ciphertext[len(c.Ciphertext)-1] ^= 0x80 }},
		{name: "flip_tag_bit", mutate: func(c *credential.Credential) { c.IntegrityTag[7] ^= 0x01 }},
		{name: "truncate_tag", mutate: func(c *credential.Credential) { c.IntegrityTag = c.IntegrityTag[:16] }},
		{name: "swap_ciphertext", mutate: func(c *credential.Credential) { c.Ciphertext = []byte("forged payload!") }},
	}

	for _, tt := range mutations {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ec := credential.Context{"app": "x"}
			cipher := envelope.New(fakes.NewFakeKeyService(), testKeyID)

			cred, err := cipher.Encrypt(context.Background(), []byte("top secret value"), ec)
			require.NoError(t, err)
			cred.Name = "db-pass"
			tt.mutate(&cred)

			secret, err := cipher.Decrypt(context.Background(), cred, ec)
			var ie credential.IntegrityError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "db-pass", ie.Name)
			assert.Nil(t, secret)
		})
	}
}

func TestEncryptKeyServiceFailure(t *testing.T) {
	t.Parallel()

	keys := fakes.NewFakeKeyService()
	keys.GenerateErr = errors.New("kms unavailable")
	cipher := envelope.New(keys, testKeyID)

	_, err := cipher.Encrypt(context.Background(), []byte("s3cr3t"), nil)
	var ee credential.EncryptionError
	require.ErrorAs(t, err, &ee)
	assert.ErrorContains(t, err, "kms unavailable")
}

func TestDecryptKeyServiceFailure(t *testing.T) {
	t.Parallel()

	keys := fakes.NewFakeKeyService()
	cipher := envelope.New(keys, testKeyID)

	cred, err := cipher.Encrypt(context.Background(), []byte("s3cr3t"), nil)
	require.NoError(t, err)

	keys.DecryptErr = errors.New("kms unavailable")
	_, err = cipher.Decrypt(context.Background(), cred, nil)
	var de credential.DecryptionError
	require.ErrorAs(t, err, &de)
	assert.Empty(t, de.Hint)
}

// Each encrypt call must fetch a fresh data key; reusing one with a fixed
// counter would be fatal for CTR mode.
func TestEncryptUsesFreshDataKeyPerCall(t *testing.T) {
	t.Parallel()

	keys := fakes.NewFakeKeyService()
	cipher := envelope.New(keys, testKeyID)

	first, err := cipher.Encrypt(context.Background(), []byte("same plaintext"), nil)
	require.NoError(t, err)
	second, err := cipher.Encrypt(context.Background(), []byte("same plaintext"), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, keys.GenerateCalls)
	assert.NotEqual(t, first.Ciphertext, second.Ciphertext)
	assert.NotEqual(t, first.WrappedKey, second.WrappedKey)
}
