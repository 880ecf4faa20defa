// Package credential defines the core data model and error taxonomy for the
// credential store.
//
// A Credential is one stored, encrypted version of one named secret. Secrets
// are protected with envelope encryption: a per-credential 64-byte data key is
// generated by a key-management service, its first half encrypts the secret
// with AES-256-CTR and its second half keys an HMAC-SHA256 over the
// ciphertext. Only the wrapped (service-encrypted) form of the data key is
// persisted, so the store never holds material that can decrypt a secret on
// its own.
//
// # Versioning
//
// Versions are strings compared lexicographically but semantically numeric.
// They are stored zero-padded to a fixed width so that lexicographic order
// equals numeric order, which lets a backing store that only supports
// lexicographic range queries resolve "highest version" correctly. A
// (name, version) pair is unique in the store; a new version is always a new
// record and records are immutable once persisted.
//
// # Encryption context
//
// Context carries caller-supplied key/value pairs that are cryptographically
// bound to the key-management operations. The same context must be presented
// to both encrypt and decrypt; a mismatch makes the wrapped data key
// undecryptable and the secret unrecoverable.
//
// # Error handling
//
// All failure modes surface as typed errors in this package so callers can
// match them with errors.As:
//
//   - NotFoundError: the requested (name, version) does not exist
//   - DuplicateVersionError: a conditional write found an existing version
//   - IntegrityError: the HMAC check failed; the record is corrupted,
//     tampered with, or was encrypted under a different context
//   - EncryptionError / DecryptionError: a cipher or key-service call failed
//   - AutoIncrementError: a stored version is not numeric and cannot be
//     auto-incremented
//
// No operation ever returns partial plaintext or a fallback value on an
// integrity or decryption failure.
package credential
