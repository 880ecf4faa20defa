package fakes

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/keyservice"
)

// wrappedKey is the fake wire form of a wrapped data key: the plaintext key
// plus the encryption context it was bound to. A real key service keeps this
// opaque; the fake only needs decryption to fail when contexts differ.
type wrappedKey struct {
	Key     []byte            `json:"key"`
	Context map[string]string `json:"context,omitempty"`
}

// FakeKeyService implements keyservice.KeyService in memory with real
// context-binding semantics: Decrypt succeeds only when presented with the
// exact context used at generation time.
type FakeKeyService struct {
	mu sync.Mutex

	// GenerateErr and DecryptErr, when set, are returned verbatim.
	GenerateErr error
	DecryptErr  error

	// GenerateCalls and DecryptCalls count invocations.
	GenerateCalls int
	DecryptCalls  int
}

// NewFakeKeyService returns an empty fake key service.
func NewFakeKeyService() *FakeKeyService {
	return &FakeKeyService{}
}

// GenerateDataKey returns numBytes of random key material bound to ec.
func (f *FakeKeyService) GenerateDataKey(_ context.Context, keyID string, ec credential.Context, numBytes int) (keyservice.DataKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++

	if f.GenerateErr != nil {
		return keyservice.DataKey{}, f.GenerateErr
	}

	plaintext := make([]byte, numBytes)
	if _, err := rand.Read(plaintext); err != nil {
		return keyservice.DataKey{}, err
	}

	wrapped, err := json.Marshal(wrappedKey{Key: plaintext, Context: ec})
	if err != nil {
		return keyservice.DataKey{}, err
	}

	// The cipher wipes its copy of the plaintext; hand out an independent
	// slice so the wrapped form stays intact.
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return keyservice.DataKey{Plaintext: out, Wrapped: wrapped}, nil
}

// Decrypt unwraps a key produced by GenerateDataKey, enforcing context
// equality the way KMS does.
func (f *FakeKeyService) Decrypt(_ context.Context, keyID string, wrapped []byte, ec credential.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DecryptCalls++

	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}

	var wk wrappedKey
	if err := json.Unmarshal(wrapped, &wk); err != nil {
		return nil, keyservice.InvalidCiphertextError{KeyID: keyID, Err: err}
	}

	if !maps.Equal(wk.Context, map[string]string(ec)) {
		return nil, keyservice.InvalidCiphertextError{
			KeyID: keyID,
			Err:   fmt.Errorf("encryption context does not match"),
		}
	}

	out := make([]byte, len(wk.Key))
	copy(out, wk.Key)
	return out, nil
}
