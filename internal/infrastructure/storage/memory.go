package storage

import (
	"context"
	"sync"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

// Memory keeps records for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	records map[domain.CacheKey]domain.ProductRecord
}

var _ ports.ProductCache = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{records: map[domain.CacheKey]domain.ProductRecord{}}
}

// Get returns the record for key if present.
func (m *Memory) Get(_ context.Context, key domain.CacheKey) (domain.ProductRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[key]
	return record, ok, nil
}

// Put stores or replaces the record for key.
func (m *Memory) Put(_ context.Context, key domain.CacheKey, record domain.ProductRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record
	return nil
}
