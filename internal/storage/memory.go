package storage

import (
	"context"
	"sync"
)

// Memory keeps values for the lifetime of the process
type Memory struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]float64)}
}

func (m *Memory) Get(_ context.Context, key string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *Memory) Set(_ context.Context, key string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error {
	return nil
}
