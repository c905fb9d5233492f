package store

import (
	"context"
	"sync"
)

type memResource struct {
	header []string
	rows   [][]string
}

// Memory is a process-local Store. The first append to an empty resource
// records the column names as its header.
type Memory struct {
	mu        sync.Mutex
	resources map[string]*memResource
}

func NewMemory() *Memory {
	return &Memory{resources: make(map[string]*memResource)}
}

// Seed replaces a resource with the given header and rows.
func (m *Memory) Seed(resource string, header []string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := &memResource{header: append([]string(nil), header...)}
	for _, r := range rows {
		res.rows = append(res.rows, append([]string(nil), r...))
	}
	m.resources[resource] = res
}

func (m *Memory) Append(ctx context.Context, resource string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return &RemoteWriteError{Resource: resource, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[resource]
	if !ok {
		res = &memResource{}
		m.resources[resource] = res
	}
	if len(res.header) == 0 {
		res.header = rec.Names()
	}
	res.rows = append(res.rows, rec.Strings())
	return nil
}

func (m *Memory) ReadAll(ctx context.Context, resource string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, &RemoteReadError{Resource: resource, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.resources[resource]
	if !ok || len(res.header) == 0 {
		return Table{}, nil
	}
	raw := make([][]string, 0, len(res.rows)+1)
	raw = append(raw, append([]string(nil), res.header...))
	for _, r := range res.rows {
		raw = append(raw, append([]string(nil), r...))
	}
	return NewTable(raw), nil
}
