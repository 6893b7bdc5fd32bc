// Package secrets stores the USPTO API key outside the database and the
// config file.  The default backend is the operating system keychain; a
// read-only environment backend exists for containers and CI, and an
// in-memory store backs tests.
package secrets

import (
	"os"
	"sync"

	"github.com/zalando/go-keyring"

	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// APIKeyName is the account name the USPTO key is stored under.
const APIKeyName = "uspto_api_key"

// Store holds named secrets.  Get returns "" with a nil error when the
// secret is simply absent; errors are reserved for backend failures.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// ─────────────────────────────────────────────────────────────────────────────
// OS keychain backend
// ─────────────────────────────────────────────────────────────────────────────

// KeyringStore persists secrets in the operating system keychain under a
// fixed service name.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a Store backed by the OS keychain.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(name string) (string, error) {
	v, err := keyring.Get(s.service, name)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.CodeSecretStore, "failed to read secret from keychain")
	}
	return v, nil
}

func (s *KeyringStore) Set(name, value string) error {
	if err := keyring.Set(s.service, name, value); err != nil {
		return appErrors.Wrap(err, appErrors.CodeSecretStore, "failed to store secret in keychain")
	}
	return nil
}

func (s *KeyringStore) Delete(name string) error {
	err := keyring.Delete(s.service, name)
	if err != nil && err != keyring.ErrNotFound {
		return appErrors.Wrap(err, appErrors.CodeSecretStore, "failed to delete secret from keychain")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Environment backend
// ─────────────────────────────────────────────────────────────────────────────

// EnvStore reads secrets from environment variables through a name mapping.
// It is read-only: headless deployments inject the key at process start.
type EnvStore struct {
	vars map[string]string
}

// NewEnvStore returns a Store that resolves secret names to the given
// environment variables.
func NewEnvStore(vars map[string]string) *EnvStore {
	return &EnvStore{vars: vars}
}

func (s *EnvStore) Get(name string) (string, error) {
	envVar, ok := s.vars[name]
	if !ok {
		return "", nil
	}
	return os.Getenv(envVar), nil
}

func (s *EnvStore) Set(name, value string) error {
	return appErrors.New(appErrors.CodeSecretStore, "environment secret backend is read-only")
}

func (s *EnvStore) Delete(name string) error {
	return appErrors.New(appErrors.CodeSecretStore, "environment secret backend is read-only")
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory backend
// ─────────────────────────────────────────────────────────────────────────────

// MemoryStore is a process-local Store for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name], nil
}

func (s *MemoryStore) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

var (
	_ Store = (*KeyringStore)(nil)
	_ Store = (*EnvStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
