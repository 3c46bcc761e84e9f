package commitstate

import (
	"context"
	"sync/atomic"
)

// Source returns the current commit-state sequence number.
type Source interface {
	Current(ctx context.Context) (uint64, error)
}

// Advancer is a Source whose sequence number can be moved forward.
type Advancer interface {
	Source
	// Advance increments the sequence number and returns the new value.
	Advance(ctx context.Context) (uint64, error)
}

// Memory is a process-local Advancer.
type Memory struct {
	seq atomic.Uint64
}

// NewMemory returns a Memory source starting at initial.
func NewMemory(initial uint64) *Memory {
	m := &Memory{}
	m.seq.Store(initial)
	return m
}

func (m *Memory) Current(context.Context) (uint64, error) {
	return m.seq.Load(), nil
}

func (m *Memory) Advance(context.Context) (uint64, error) {
	return m.seq.Add(1), nil
}

// Static is a Source that always returns the same sequence number.
type Static uint64

func (s Static) Current(context.Context) (uint64, error) {
	return uint64(s), nil
}

var (
	_ Advancer = (*Memory)(nil)
	_ Source   = Static(0)
)
