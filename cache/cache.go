// Package cache implements the host-owned key/value result store reused
// across kernel invocations.
package cache

import (
	"context"
	"sync"
)

// Store is the result cache interface. Absence is a valid outcome, never
// an error: Get returns an empty value for unknown keys. Put reports
// refusal through the bool, reserving the error for transport failures.
type Store interface {
	// Get returns the value stored under key, or an empty slice if the
	// key is absent.
	Get(ctx context.Context, key string) ([]int32, error)
	// Put inserts or overwrites the key's value. Returns false when the
	// store refused the put (e.g. budget exhausted); the caller must not
	// assume the value is cached.
	Put(ctx context.Context, key string, value []int32) (bool, error)
	// Close releases store resources.
	Close() error
}

// Memory is an in-process Store with a fixed element budget. Values
// persist for the host process's lifetime unless overwritten.
type Memory struct {
	mu      sync.Mutex
	budget  int
	used    int
	entries map[string][]int32
}

// DefaultBudget is the default total number of int32 elements the memory
// store accepts across all keys.
const DefaultBudget = 1 << 20

// NewMemory creates a memory store with the given element budget. Zero
// selects DefaultBudget.
func NewMemory(budget int) *Memory {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Memory{
		budget:  budget,
		entries: make(map[string][]int32),
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]int32, len(value))
	copy(out, value)
	return out, nil
}

// Put implements Store. A put always replaces the prior value regardless
// of its length or shape; only the budget check can refuse it.
func (m *Memory) Put(_ context.Context, key string, value []int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prior := len(m.entries[key])
	if m.used-prior+len(value) > m.budget {
		return false, nil
	}

	stored := make([]int32, len(value))
	copy(stored, value)
	m.entries[key] = stored
	m.used += len(value) - prior
	return true, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
