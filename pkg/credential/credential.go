package credential

import "fmt"

// Context is the encryption context bound to key-management operations.
// Ordering is irrelevant; the same key/value pairs must be passed identically
// to both encrypt and decrypt or decryption fails.
type Context map[string]string

// Credential is one stored, encrypted version of one named secret.
//
// Immutable once persisted: rotation writes a new record under a higher
// version rather than updating in place.
type Credential struct {
	// Name identifies the logical secret. Never empty.
	Name string

	// Version is a zero-padded numeric string; lexicographic order equals
	// numeric order.
	Version string

	// WrappedKey is the key-management service's encrypted form of the
	// 64-byte data key. Opaque to this module; only the key service can
	// unwrap it.
	WrappedKey []byte

	// Ciphertext is the AES-256-CTR encrypted secret.
	Ciphertext []byte

	// IntegrityTag is the HMAC-SHA256 of Ciphertext, keyed by the second
	// half of the unwrapped data key. Verified before every decryption.
	IntegrityTag []byte
}

// NotFoundError indicates that no credential exists for the requested
// name and version.
type NotFoundError struct {
	Name    string
	Version string
}

func (e NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("credential not found: %s (version %s)", e.Name, e.Version)
	}
	return "credential not found: " + e.Name
}

// DuplicateVersionError indicates that a conditional write found an existing
// credential with the same name and version. The caller may retry with a
// freshly computed version.
type DuplicateVersionError struct {
	Name    string
	Version string
}

func (e DuplicateVersionError) Error() string {
	return fmt.Sprintf("credential %s version %s already exists", e.Name, e.Version)
}

// IntegrityError indicates that the integrity tag did not match the stored
// ciphertext. The record is corrupted, tampered with, or was encrypted under
// a different encryption context. The secret is never returned.
type IntegrityError struct {
	Name string
}

func (e IntegrityError) Error() string {
	return "integrity check failed for credential " + e.Name
}

// EncryptionError wraps a key-service or cipher failure during encryption.
type EncryptionError struct {
	Err error
}

func (e EncryptionError) Error() string {
	return "encryption failed: " + e.Err.Error()
}

func (e EncryptionError) Unwrap() error {
	return e.Err
}

// DecryptionError wraps a key-service failure during decryption. Hint, when
// set, tells the caller whether the encryption context was likely missing or
// mismatched. This is a usability contract, not a security one.
type DecryptionError struct {
	Hint string
	Err  error
}

func (e DecryptionError) Error() string {
	msg := "decryption failed"
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e DecryptionError) Unwrap() error {
	return e.Err
}

// AutoIncrementError indicates that the stored highest version is not numeric
// and cannot safely be incremented.
type AutoIncrementError struct {
	Name    string
	Version string
}

func (e AutoIncrementError) Error() string {
	return fmt.Sprintf("cannot auto-increment non-numeric version %q for credential %s", e.Version, e.Name)
}
