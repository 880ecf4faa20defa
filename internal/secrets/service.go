// Package secrets composes the envelope cipher, version sequencing and
// pattern matching into the credential store's public operations.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/systmms/credstore/internal/envelope"
	"github.com/systmms/credstore/internal/logging"
	"github.com/systmms/credstore/internal/match"
	"github.com/systmms/credstore/internal/metrics"
	"github.com/systmms/credstore/internal/sequence"
	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/keyservice"
	"github.com/systmms/credstore/pkg/store"
)

// NameVersion is one (name, highest version) listing entry.
type NameVersion struct {
	Name    string
	Version string
}

// NamedSecret is one decrypted secret from a batch enumeration.
type NamedSecret struct {
	Name   string
	Secret []byte
}

// Service is the credential store facade. It is stateless between calls; all
// state lives in the store and key-service collaborators, and the store's
// conditional write is the sole synchronization point for concurrent puts,
// in process or across processes.
type Service struct {
	store  store.Store
	cipher *envelope.Cipher
	log    *logging.Logger
}

// New creates a Service over the given collaborators.
func New(st store.Store, cipher *envelope.Cipher, log *logging.Logger) *Service {
	return &Service{store: st, cipher: cipher, log: log}
}

// HighestVersion returns the lexicographically greatest stored version of
// name, or the zero-padded "0" when none exist. A pure read.
func (s *Service) HighestVersion(ctx context.Context, name string) (string, error) {
	highest := ""
	for version, err := range s.store.QueryVersions(ctx, name) {
		if err != nil {
			return "", err
		}
		if version > highest {
			highest = version
		}
	}
	if highest == "" {
		return sequence.Zero(), nil
	}
	return highest, nil
}

// Put encrypts secret under the encryption context and persists it. An empty
// version auto-increments from the current highest; a caller-supplied version
// is used verbatim. The conditional write turns a lost auto-increment race
// into credential.DuplicateVersionError, which the caller may retry. Returns
// the version written.
func (s *Service) Put(ctx context.Context, name string, secret []byte, ec credential.Context, version string) (written string, err error) {
	defer func(start time.Time) {
		metrics.RecordOperation("put", err)
		metrics.ObserveOperation("put", start)
	}(time.Now())

	if name == "" {
		return "", fmt.Errorf("credential name must not be empty")
	}

	resolved := version
	if resolved == "" {
		highest, err := s.HighestVersion(ctx, name)
		if err != nil {
			return "", err
		}
		resolved, err = sequence.Next(name, highest)
		if err != nil {
			return "", err
		}
	}

	cred, err := s.cipher.Encrypt(ctx, secret, ec)
	if err != nil {
		return "", err
	}
	cred.Name = name
	cred.Version = resolved

	if err := s.store.PutItem(ctx, cred, true); err != nil {
		var conflict store.ConflictError
		if errors.As(err, &conflict) {
			return "", credential.DuplicateVersionError{Name: name, Version: resolved}
		}
		return "", err
	}

	s.log.Debug("stored credential %s version %s", name, resolved)
	return resolved, nil
}

// Get fetches and decrypts one credential. An empty version resolves to the
// highest stored version. Returns credential.NotFoundError when no matching
// (name, version) exists.
func (s *Service) Get(ctx context.Context, name string, ec credential.Context, version string) (secret []byte, err error) {
	defer func(start time.Time) {
		metrics.RecordOperation("get", err)
		metrics.ObserveOperation("get", start)
	}(time.Now())

	resolved := version
	if resolved == "" {
		resolved, err = s.HighestVersion(ctx, name)
		if err != nil {
			return nil, err
		}
	}

	cred, err := s.store.GetItem(ctx, name, resolved)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, credential.NotFoundError{Name: name, Version: version}
		}
		return nil, err
	}

	secret, err = s.cipher.Decrypt(ctx, cred, ec)
	if err != nil {
		metrics.RecordDecryptFailure(decryptFailureReason(err))
		return nil, err
	}
	return secret, nil
}

// List enumerates the (name, highest version) pairs whose name matches
// pattern, without decrypting anything. The sequence is restartable: each
// range re-scans the store. An invalid pattern fails eagerly.
func (s *Service) List(ctx context.Context, pattern string) (iter.Seq2[NameVersion, error], error) {
	m, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	return func(yield func(NameVersion, error) bool) {
		highest := make(map[string]string)
		var names []string
		for cred, err := range s.store.ScanAll(ctx) {
			if err != nil {
				yield(NameVersion{}, err)
				return
			}
			if !m.Match(cred.Name) {
				continue
			}
			if current, seen := highest[cred.Name]; !seen || cred.Version > current {
				if !seen {
					names = append(names, cred.Name)
				}
				highest[cred.Name] = cred.Version
			}
		}
		sort.Strings(names)

		for _, name := range names {
			if !yield(NameVersion{Name: name, Version: highest[name]}, nil) {
				return
			}
		}
	}, nil
}

// GetAll enumerates every distinct stored name, decrypting each under the
// encryption context. An empty version resolves per name to its highest; a
// fixed version applies to every name. The first failure terminates the
// sequence: a corrupted credential is never silently skipped.
//
// Consistency is best-effort and snapshot-less: puts concurrent with the
// enumeration may or may not be observed.
func (s *Service) GetAll(ctx context.Context, ec credential.Context, version string) iter.Seq2[NamedSecret, error] {
	seq, err := s.Search(ctx, match.All, ec, version)
	if err != nil {
		// match.All always compiles.
		panic(err)
	}
	return seq
}

// Search is GetAll restricted to names matching pattern. An invalid pattern
// fails eagerly; everything else shares GetAll's semantics.
func (s *Service) Search(ctx context.Context, pattern string, ec credential.Context, version string) (iter.Seq2[NamedSecret, error], error) {
	m, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	return func(yield func(NamedSecret, error) bool) {
		names, err := s.matchingNames(ctx, m)
		if err != nil {
			yield(NamedSecret{}, err)
			return
		}
		for _, name := range names {
			secret, err := s.Get(ctx, name, ec, version)
			if err != nil {
				yield(NamedSecret{Name: name}, err)
				return
			}
			if !yield(NamedSecret{Name: name, Secret: secret}, nil) {
				return
			}
		}
	}, nil
}

// Delete removes every version of name. Idempotent; deleting a nonexistent
// name succeeds.
func (s *Service) Delete(ctx context.Context, name string) (err error) {
	defer func(start time.Time) {
		metrics.RecordOperation("delete", err)
		metrics.ObserveOperation("delete", start)
	}(time.Now())

	if err := s.store.DeleteAllVersions(ctx, name); err != nil {
		return err
	}
	s.log.Debug("deleted all versions of %s", name)
	return nil
}

func (s *Service) matchingNames(ctx context.Context, m match.Matcher) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for cred, err := range s.store.ScanAll(ctx) {
		if err != nil {
			return nil, err
		}
		if seen[cred.Name] || !m.Match(cred.Name) {
			continue
		}
		seen[cred.Name] = true
		names = append(names, cred.Name)
	}
	sort.Strings(names)
	return names, nil
}

func compilePattern(pattern string) (match.Matcher, error) {
	if pattern == "" {
		pattern = match.All
	}
	return match.Compile(pattern)
}

func decryptFailureReason(err error) string {
	var ie credential.IntegrityError
	if errors.As(err, &ie) {
		return "integrity"
	}
	if keyservice.IsInvalidCiphertext(err) {
		return "context"
	}
	return "key_service"
}
