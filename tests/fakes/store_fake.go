package fakes

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/systmms/credstore/pkg/credential"
	"github.com/systmms/credstore/pkg/store"
)

// MemoryStore implements store.Store with a mutex-guarded map, honoring the
// conditional-write contract so duplicate-version races are observable in
// tests. Enumerations yield deterministic name-then-version order.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]map[string]credential.Credential

	// PutErr, GetErr, ScanErr and DeleteErr, when set, are returned (or
	// yielded) verbatim by the corresponding operation.
	PutErr    error
	GetErr    error
	ScanErr   error
	DeleteErr error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]credential.Credential)}
}

func (m *MemoryStore) PutItem(_ context.Context, cred credential.Credential, ifAbsent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return m.PutErr
	}

	versions, ok := m.items[cred.Name]
	if !ok {
		versions = make(map[string]credential.Credential)
		m.items[cred.Name] = versions
	}
	if _, exists := versions[cred.Version]; exists && ifAbsent {
		return store.ConflictError{Name: cred.Name, Version: cred.Version}
	}
	versions[cred.Version] = cred
	return nil
}

func (m *MemoryStore) GetItem(_ context.Context, name, version string) (credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetErr != nil {
		return credential.Credential{}, m.GetErr
	}
	cred, ok := m.items[name][version]
	if !ok {
		return credential.Credential{}, store.ErrItemNotFound
	}
	return cred, nil
}

func (m *MemoryStore) QueryVersions(_ context.Context, name string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, version := range m.snapshotVersions(name) {
			if !yield(version, nil) {
				return
			}
		}
	}
}

func (m *MemoryStore) ScanAll(_ context.Context) iter.Seq2[credential.Credential, error] {
	return func(yield func(credential.Credential, error) bool) {
		if m.ScanErr != nil {
			yield(credential.Credential{}, m.ScanErr)
			return
		}
		for _, cred := range m.snapshotAll() {
			if !yield(cred, nil) {
				return
			}
		}
	}
}

func (m *MemoryStore) DeleteAllVersions(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.items, name)
	return nil
}

// Corrupt flips a byte of the stored ciphertext for (name, version), for
// tamper-detection tests.
func (m *MemoryStore) Corrupt(name, version string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.items[name][version]
	if !ok || len(cred.Ciphertext) == 0 {
		return false
	}
	tampered := make([]byte, len(cred.Ciphertext))
	copy(tampered, cred.Ciphertext)
	tampered[0] ^= 0x01
	cred.Ciphertext = tampered
	m.items[name][version] = cred
	return true
}

func (m *MemoryStore) snapshotVersions(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions := make([]string, 0, len(m.items[name]))
	for v := range m.items[name] {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

func (m *MemoryStore) snapshotAll() []credential.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []credential.Credential
	for _, versions := range m.items {
		for _, cred := range versions {
			all = append(all, cred)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].Version < all[j].Version
	})
	return all
}
