package config

import (
	"fmt"

	"github.com/orogen-io/sideband/cache"
	"github.com/orogen-io/sideband/flow"
	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/rpc"
)

// ArenaSize returns the configured exchange arena capacity, or the
// default when unset.
func (c SessionConfig) ArenaSize() int {
	if c.ArenaBytes > 0 {
		return c.ArenaBytes
	}
	return mailbox.DefaultArenaSize
}

// ChannelFifoDepth returns the configured per-channel FIFO depth, or the
// default when unset.
func (c SessionConfig) ChannelFifoDepth() uint16 {
	if c.FifoDepth > 0 {
		return c.FifoDepth
	}
	return flow.DefaultFifoDepth
}

// ResultBudget returns the configured RPC result size bound, or the
// default when unset.
func (c SessionConfig) ResultBudget() int {
	if c.MaxResultBytes > 0 {
		return c.MaxResultBytes
	}
	return rpc.DefaultMaxResultSize
}

// NewStore builds the configured result cache store. An empty backend
// selects the in-process memory store.
func (c CacheConfig) NewStore() (cache.Store, error) {
	switch c.Backend {
	case "", "memory":
		// The memory store budgets int32 elements, not bytes.
		return cache.NewMemory(c.BudgetBytes / 4), nil
	case "redis":
		return cache.NewRedis(cache.RedisConfig{
			URL:       c.RedisURL,
			KeyPrefix: c.KeyPrefix,
			Timeout:   c.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be memory or redis)", c.Backend)
	}
}
