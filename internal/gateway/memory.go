package gateway

import (
	"context"
	"sync"
)

// MemoryGateway keeps the table in process. Used for tests and the
// "memory" backend.
type MemoryGateway struct {
	mu sync.RWMutex
	t  Table
}

func NewMemory(initial Table) *MemoryGateway {
	return &MemoryGateway{t: initial.Clone()}
}

func (g *MemoryGateway) Read(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.t.Clone(), nil
}

func (g *MemoryGateway) Update(ctx context.Context, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.t = t.Clone()
	return nil
}
