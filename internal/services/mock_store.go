package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"kaizen/internal/infrastructure/errors"
	"kaizen/internal/store"
)

// MockStore implements store.Store for testing with call counts and
// switchable failures
type MockStore struct {
	mu            sync.RWMutex
	docs          map[string]string
	getCallCount  int
	putCallCount  int
	listCallCount int
	shouldFailGet bool
	shouldFailPut bool
	lastPut       map[string]string
}

var _ store.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{docs: make(map[string]string)}
}

// SetFailureModes configures the mock to simulate read and write failures
func (m *MockStore) SetFailureModes(get, put bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailGet = get
	m.shouldFailPut = put
}

// GetCallCounts returns the number of reads, writes and listings
func (m *MockStore) GetCallCounts() (get, put, list int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCallCount, m.putCallCount, m.listCallCount
}

// LastPut returns a copy of the documents of the most recent successful write
func (m *MockStore) LastPut() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.lastPut))
	for k, v := range m.lastPut {
		out[k] = v
	}
	return out
}

// Seed stores a document without counting a call
func (m *MockStore) Seed(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = value
}

// Value returns a stored document without counting a call
func (m *MockStore) Value(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	return v, ok
}

func (m *MockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCallCount++
	if m.shouldFailGet {
		return "", false, errors.NewRepositoryError("Get", fmt.Errorf("mock get failure"), errors.ErrCodeConnection)
	}
	v, ok := m.docs[key]
	return v, ok, nil
}

func (m *MockStore) Put(ctx context.Context, key, value string) error {
	return m.PutMany(ctx, map[string]string{key: value})
}

func (m *MockStore) PutMany(ctx context.Context, docs map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCallCount++
	if m.shouldFailPut {
		return errors.NewRepositoryError("PutMany", fmt.Errorf("mock quota exceeded"), errors.ErrCodeDiskSpace)
	}
	m.lastPut = make(map[string]string, len(docs))
	for k, v := range docs {
		m.docs[k] = v
		m.lastPut[k] = v
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MockStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCallCount++
	out := make(map[string]string)
	for k, v := range m.docs {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MockStore) Close() error { return nil }
