package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jwebster45206/npc-memory/pkg/memory"
)

// MockStore is an in-memory implementation of memory.Store for testing.
type MockStore struct {
	mu        sync.RWMutex
	data      []byte
	pingError error
	saveError error
	loadError error
}

// Ensure MockStore implements memory.Store
var _ memory.Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// SetPingError configures the mock to fail on ping with the given error.
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail saves with the given error.
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError configures the mock to fail loads with the given error.
func (m *MockStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error { return nil }

// SaveSnapshot round-trips through JSON so the mock catches anything a
// real encoding would lose.
func (m *MockStore) SaveSnapshot(ctx context.Context, snap *memory.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *MockStore) LoadSnapshot(ctx context.Context) (*memory.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.data == nil {
		return nil, nil
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(m.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
