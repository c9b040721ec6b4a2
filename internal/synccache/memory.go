package synccache

import (
	"context"
	"sync"
	"time"
)

// Memory keeps last-sync timestamps in process
type Memory struct {
	mu    sync.RWMutex
	times map[string]time.Time
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{times: make(map[string]time.Time)}
}

// GetLastSync returns the last sync time for scope, or nil if it never synced
func (m *Memory) GetLastSync(ctx context.Context, scope string) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.times[scope]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// SetLastSync records t as the last sync time for scope
func (m *Memory) SetLastSync(ctx context.Context, scope string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.times[scope] = t
	return nil
}
