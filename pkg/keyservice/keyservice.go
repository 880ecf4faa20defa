// Package keyservice defines the contract for the key-management collaborator
// used for envelope encryption.
//
// The key service generates per-credential data keys bound to an encryption
// context and returns them in both plaintext and wrapped form. The plaintext
// key encrypts a single secret and is discarded; the wrapped key is persisted
// alongside the ciphertext and can only be unwrapped by the same service under
// the same context. The service never handles bulk data.
//
// Implementations must be safe for concurrent use. The reference
// implementation backed by AWS KMS lives in internal/kms; tests use an
// in-memory fake that enforces context binding the same way.
package keyservice

import (
	"context"
	"errors"

	"github.com/systmms/credstore/pkg/credential"
)

// DataKey is a freshly generated data key in both plaintext and wrapped form.
//
// Plaintext must be wiped as soon as the caller has finished encrypting;
// Wrapped is safe to persist.
type DataKey struct {
	Plaintext []byte
	Wrapped   []byte
}

// KeyService is the narrow interface this module requires of a
// key-management service.
type KeyService interface {
	// GenerateDataKey returns a new data key of numBytes bytes bound to the
	// given encryption context. keyID selects the master key (for example a
	// KMS key alias); it is configuration, never a compiled-in constant.
	GenerateDataKey(ctx context.Context, keyID string, ec credential.Context, numBytes int) (DataKey, error)

	// Decrypt unwraps a wrapped data key under the given encryption context,
	// recovering the original plaintext key.
	//
	// When the wrapped key cannot be decrypted for the presented context the
	// returned error must match InvalidCiphertextError via errors.As, so the
	// envelope cipher can tell "context required" apart from "context
	// mismatch" in its failure message.
	Decrypt(ctx context.Context, keyID string, wrapped []byte, ec credential.Context) ([]byte, error)
}

// InvalidCiphertextError signals that the key service rejected the wrapped
// key as invalid for the presented encryption context.
type InvalidCiphertextError struct {
	KeyID string
	Err   error
}

func (e InvalidCiphertextError) Error() string {
	msg := "key service rejected ciphertext"
	if e.KeyID != "" {
		msg += " for key " + e.KeyID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e InvalidCiphertextError) Unwrap() error {
	return e.Err
}

// IsInvalidCiphertext reports whether err indicates an
// invalid-ciphertext-for-context condition.
func IsInvalidCiphertext(err error) bool {
	var ice InvalidCiphertextError
	return errors.As(err, &ice)
}
