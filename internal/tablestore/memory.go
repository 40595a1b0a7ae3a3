package tablestore

import (
	"context"
	"sync"
)

// MemBackend keeps tables in process memory. Handy for tests and
// throwaway dev runs; nothing survives a restart.
type MemBackend struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemBackend() *MemBackend {
	return &MemBackend{tables: map[string][]Row{}}
}

func (m *MemBackend) Load(_ context.Context, table string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tables[table]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = append(Row(nil), r...)
	}
	return out, nil
}

func (m *MemBackend) Save(_ context.Context, table string, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Row, len(rows))
	for i, r := range rows {
		cp[i] = append(Row(nil), r...)
	}
	m.tables[table] = cp
	return nil
}
