// Package secure provides memory-safe handling of plaintext key material.
//
// Unwrapped data keys pass through process memory between the key-management
// call and the cipher operation. This package wraps them in memguard locked
// buffers so the plaintext is mlocked against swapping, fenced by guard
// pages, and wiped on destruction. Call memguard.Purge in main at exit for
// full cleanup of any remaining material.
//
// If mlock is unavailable (for example a low RLIMIT_MEMLOCK), memguard
// degrades to standard memory; core-dump and swap protection is best effort.
package secure

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// DataKeyBytes is the envelope data key size: a 32-byte AES-256 key followed
// by a 32-byte HMAC-SHA256 key.
const DataKeyBytes = 64

// KeyBuffer holds a 64-byte envelope data key in locked memory and exposes
// its two halves. Not safe for concurrent use; a KeyBuffer lives for the
// duration of a single encrypt or decrypt.
type KeyBuffer struct {
	buf *memguard.LockedBuffer
}

// NewKeyBuffer moves raw into a locked buffer. The source slice is wiped by
// memguard as part of the move, so callers must not reuse it.
func NewKeyBuffer(raw []byte) (*KeyBuffer, error) {
	if len(raw) != DataKeyBytes {
		memguard.WipeBytes(raw)
		return nil, fmt.Errorf("data key must be %d bytes, got %d", DataKeyBytes, len(raw))
	}
	return &KeyBuffer{buf: memguard.NewBufferFromBytes(raw)}, nil
}

// EncryptionKey returns the first 32 bytes, the AES-256 key. The slice
// aliases locked memory and is invalid after Destroy.
func (k *KeyBuffer) EncryptionKey() []byte {
	return k.buf.Bytes()[:DataKeyBytes/2]
}

// MACKey returns the last 32 bytes, the HMAC-SHA256 key. The slice aliases
// locked memory and is invalid after Destroy.
func (k *KeyBuffer) MACKey() []byte {
	return k.buf.Bytes()[DataKeyBytes/2:]
}

// Destroy wipes and releases the locked buffer. Idempotent.
func (k *KeyBuffer) Destroy() {
	if k.buf != nil {
		k.buf.Destroy()
		k.buf = nil
	}
}
