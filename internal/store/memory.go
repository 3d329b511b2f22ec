package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	storeerrors "kaizen/internal/infrastructure/errors"
)

// MemoryStore keeps documents in a map. Contents are lost on Close.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]string
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]string)}
}

func emptyKeyError(op string) error {
	return storeerrors.HandleValidationError(op, "document", errors.New("document key is empty"))
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, storeerrors.HandleClosedError("Get", BackendMemory)
	}
	if key == "" {
		return "", false, emptyKeyError("Get")
	}
	value, ok := m.docs[key]
	return value, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeerrors.HandleClosedError("Put", BackendMemory)
	}
	if key == "" {
		return emptyKeyError("Put")
	}
	m.docs[key] = value
	return nil
}

func (m *MemoryStore) PutMany(_ context.Context, docs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeerrors.HandleClosedError("PutMany", BackendMemory)
	}
	for key := range docs {
		if key == "" {
			return emptyKeyError("PutMany")
		}
	}
	for key, value := range docs {
		m.docs[key] = value
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return storeerrors.HandleClosedError("Delete", BackendMemory)
	}
	if key == "" {
		return emptyKeyError("Delete")
	}
	delete(m.docs, key)
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, storeerrors.HandleClosedError("List", BackendMemory)
	}
	out := make(map[string]string)
	for key, value := range m.docs {
		if strings.HasPrefix(key, prefix) {
			out[key] = value
		}
	}
	return out, nil
}

// Close drops every document. Closing twice is a no-op.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.docs = nil
	return nil
}
