// Package envelope implements the envelope-encryption protocol protecting
// every stored credential.
//
// One key-service round trip yields a 64-byte data key whose first half
// encrypts the secret with AES-256-CTR and whose second half keys an
// HMAC-SHA256 over the ciphertext (encrypt-then-MAC), so confidentiality and
// integrity material come from a single wrap/unwrap at no extra service cost.
// The HMAC is verified before any decryption is attempted, which keeps a
// tampered record from ever reaching the cipher.
package envelope

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"github.com/systmms/credstore/internal/secure"
	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/keyservice"
)

// Context hints attached to DecryptionError when the key service rejects the
// wrapped key. Which one applies depends on whether the caller supplied a
// context at all.
const (
	hintContextRequired = "the credential may require an encryption context to decrypt"
	hintContextMismatch = "the encryption context provided may not match the one used when the credential was stored"
)

// Cipher encrypts and decrypts secrets with envelope encryption. Stateless
// and safe for concurrent use.
type Cipher struct {
	keys  keyservice.KeyService
	keyID string
}

// New returns a Cipher using keys under the given master key identifier.
// The identifier is explicit configuration; there is no default alias.
func New(keys keyservice.KeyService, keyID string) *Cipher {
	return &Cipher{keys: keys, keyID: keyID}
}

// counterBlock builds the initial CTR counter: 12 zero bytes followed by the
// 32-bit big-endian integer 1. The counter starts at 1, not 0, and is
// identical for every credential; uniqueness comes from the per-credential
// data key, never from the counter.
func counterBlock() []byte {
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint32(iv[12:], 1)
	return iv
}

// Encrypt protects secret under a fresh data key bound to ec. The returned
// credential carries the wrapped key, the ciphertext, and the integrity tag;
// the caller assigns name and version before persisting.
func (c *Cipher) Encrypt(ctx context.Context, secret []byte, ec credential.Context) (credential.Credential, error) {
	dk, err := c.keys.GenerateDataKey(ctx, c.keyID, ec, secure.DataKeyBytes)
	if err != nil {
		return credential.Credential{}, credential.EncryptionError{Err: err}
	}

	kb, err := secure.NewKeyBuffer(dk.Plaintext)
	if err != nil {
		return credential.Credential{}, credential.EncryptionError{Err: err}
	}
	defer kb.Destroy()

	block, err := aes.NewCipher(kb.EncryptionKey())
	if err != nil {
		return credential.Credential{}, credential.EncryptionError{Err: err}
	}

	ciphertext := make([]byte, len(secret))
	cipher.NewCTR(block, counterBlock()).XORKeyStream(ciphertext, secret)

	mac := hmac.New(sha256.New, kb.MACKey())
	mac.Write(ciphertext)

	return credential.Credential{
		WrappedKey:   dk.Wrapped,
		Ciphertext:   ciphertext,
		IntegrityTag: mac.Sum(nil),
	}, nil
}

// Decrypt unwraps the credential's data key under ec, verifies the integrity
// tag with a constant-time comparison, and only then decrypts. On a tag
// mismatch it returns IntegrityError and never partial plaintext.
func (c *Cipher) Decrypt(ctx context.Context, cred credential.Credential, ec credential.Context) ([]byte, error) {
	raw, err := c.keys.Decrypt(ctx, c.keyID, cred.WrappedKey, ec)
	if err != nil {
		if keyservice.IsInvalidCiphertext(err) {
			hint := hintContextMismatch
			if len(ec) == 0 {
				hint = hintContextRequired
			}
			return nil, credential.DecryptionError{Hint: hint, Err: err}
		}
		return nil, credential.DecryptionError{Err: err}
	}

	kb, err := secure.NewKeyBuffer(raw)
	if err != nil {
		return nil, credential.DecryptionError{Err: err}
	}
	defer kb.Destroy()

	mac := hmac.New(sha256.New, kb.MACKey())
	mac.Write(cred.Ciphertext)
	if !hmac.Equal(mac.Sum(nil), cred.IntegrityTag) {
		return nil, credential.IntegrityError{Name: cred.Name}
	}

	block, err := aes.NewCipher(kb.EncryptionKey())
	if err != nil {
		return nil, credential.DecryptionError{Err: err}
	}

	secret := make([]byte, len(cred.Ciphertext))
	cipher.NewCTR(block, counterBlock()).XORKeyStream(secret, cred.Ciphertext)
	return secret, nil
}
