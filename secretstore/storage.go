// Package secretstore defines the secret persistence capability used by the
// remember-me token store, together with in-memory, encrypted and Redis
// backed implementations.
package secretstore

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeStorage = "SECRET_STORAGE_ERROR"

// ErrStorage is the base error for storage failures.
var ErrStorage = goerrors.New("secret storage failure", goerrors.CategoryInternal).
	WithTextCode(textCodeStorage)

// Storage is durable key/value storage for secrets. Read reports ok=false
// with a nil error when the key is absent.
type Storage interface {
	Write(ctx context.Context, key, value string) error
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
}

// Memory is a process-local Storage, mostly useful for tests and
// single-process tools.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Storage = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Write(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	return v, ok, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	m.values = make(map[string]string)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// StorageError wraps a backend failure for op on key.
func StorageError(op, key string, err error) error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, "secret storage "+op+" failed").
		WithTextCode(textCodeStorage)
	wrapped.WithMetadata(map[string]any{
		"operation": op,
		"key":       key,
	})
	return wrapped
}
