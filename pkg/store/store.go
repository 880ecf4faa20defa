// Package store defines the contract for the persistent store collaborator.
//
// The store holds encrypted credential records keyed by (name, version). It
// is required to support exactly five operations: a conditional put, a point
// get, a per-name version enumeration, a full scan, and a delete of every
// version of a name. All cross-version semantics (auto-increment, highest
// version, pattern search) are built on top of these by the facade; in
// particular the store's conditional write is the only synchronization point
// for concurrent puts, in process or across processes.
//
// Enumerations are exposed as iter.Seq2 sequences yielding either a value or
// an error. They are finite and restartable: each range re-runs the
// underlying query. Consumers may stop early at any time; implementations
// must release any paginated cursor on every exit path.
package store

import (
	"context"
	"errors"
	"iter"

	"github.com/systmms/credstore/pkg/credential"
)

// ErrItemNotFound is returned by GetItem when no record exists for the
// requested name and version.
var ErrItemNotFound = errors.New("item not found")

// ConflictError is returned by PutItem when a conditional write found an
// existing record for the same (name, version).
type ConflictError struct {
	Name    string
	Version string
}

func (e ConflictError) Error() string {
	return "conditional write failed: " + e.Name + " version " + e.Version + " exists"
}

// Store is the narrow interface this module requires of a persistent store.
//
// Implementations must be safe for concurrent use and must preserve
// lexicographic ordering semantics for the version sort key.
type Store interface {
	// PutItem persists a credential record. When ifAbsent is true the write
	// must be conditional on no record existing for (Name, Version) and
	// return ConflictError otherwise.
	PutItem(ctx context.Context, cred credential.Credential, ifAbsent bool) error

	// GetItem fetches one record, or ErrItemNotFound.
	GetItem(ctx context.Context, name, version string) (credential.Credential, error)

	// QueryVersions enumerates every stored version of name, in no
	// particular order. A pure read.
	QueryVersions(ctx context.Context, name string) iter.Seq2[string, error]

	// ScanAll enumerates every stored record. Concurrent writes during the
	// scan may or may not be observed.
	ScanAll(ctx context.Context) iter.Seq2[credential.Credential, error]

	// DeleteAllVersions removes every version of name. Idempotent; deleting
	// a nonexistent name is not an error.
	DeleteAllVersions(ctx context.Context, name string) error
}
