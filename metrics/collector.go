// Package metrics provides per-session counters. The Collector accumulates
// during a single kernel invocation and is read out after the session ends.
// It is a leaf package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of a session's counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Traffic
	MessagesIn  int64
	MessagesOut int64
	ByCategory  map[string]int64

	// Lifecycle
	RunsStarted  int64
	RunsFinished int64
	RunsRaised   int64
	RunsAborted  int64

	// RPC
	RPCSync       int64
	RPCAsync      int64
	RPCExceptions int64

	// Cache
	CacheHits   int64
	CacheMisses int64

	// Watchdogs
	WatchdogsSet     int64
	WatchdogsExpired int64

	// Dimensions (informational, set at construction)
	SessionID string
}

// Collector accumulates counters during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so callers never have to guard against an unconfigured collector.
type Collector struct {
	mu sync.Mutex

	messagesIn  int64
	messagesOut int64
	byCategory  map[string]int64

	runsStarted  int64
	runsFinished int64
	runsRaised   int64
	runsAborted  int64

	rpcSync       int64
	rpcAsync      int64
	rpcExceptions int64

	cacheHits   int64
	cacheMisses int64

	watchdogsSet     int64
	watchdogsExpired int64

	sessionID string
}

// NewCollector creates a Collector labelled with the session ID.
func NewCollector(sessionID string) *Collector {
	return &Collector{
		byCategory: make(map[string]int64),
		sessionID:  sessionID,
	}
}

// IncMessageIn records one message received from the kernel, tallied under
// its category.
func (c *Collector) IncMessageIn(category string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messagesIn++
	c.byCategory[category]++
	c.mu.Unlock()
}

// IncMessageOut records one reply sent to the kernel.
func (c *Collector) IncMessageOut() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.messagesOut++
	c.mu.Unlock()
}

// IncRunStarted records a program entering execution.
func (c *Collector) IncRunStarted() {
	if c == nil {
		return
	}
	c.inc(&c.runsStarted)
}

// IncRunFinished records a clean completion.
func (c *Collector) IncRunFinished() {
	if c == nil {
		return
	}
	c.inc(&c.runsFinished)
}

// IncRunRaised records a completion by uncaught exception.
func (c *Collector) IncRunRaised() {
	if c == nil {
		return
	}
	c.inc(&c.runsRaised)
}

// IncRunAborted records an abort, kernel-initiated or forced.
func (c *Collector) IncRunAborted() {
	if c == nil {
		return
	}
	c.inc(&c.runsAborted)
}

// IncRPCSync records a synchronous host call.
func (c *Collector) IncRPCSync() {
	if c == nil {
		return
	}
	c.inc(&c.rpcSync)
}

// IncRPCAsync records a fire-and-forget host call.
func (c *Collector) IncRPCAsync() {
	if c == nil {
		return
	}
	c.inc(&c.rpcAsync)
}

// IncRPCException records a host call that resolved to an exception.
func (c *Collector) IncRPCException() {
	if c == nil {
		return
	}
	c.inc(&c.rpcExceptions)
}

// IncCacheHit records a cache lookup that found a value.
func (c *Collector) IncCacheHit() {
	if c == nil {
		return
	}
	c.inc(&c.cacheHits)
}

// IncCacheMiss records a cache lookup that found nothing.
func (c *Collector) IncCacheMiss() {
	if c == nil {
		return
	}
	c.inc(&c.cacheMisses)
}

// IncWatchdogSet records a watchdog arm.
func (c *Collector) IncWatchdogSet() {
	if c == nil {
		return
	}
	c.inc(&c.watchdogsSet)
}

// IncWatchdogExpired records a watchdog firing.
func (c *Collector) IncWatchdogExpired() {
	if c == nil {
		return
	}
	c.inc(&c.watchdogsExpired)
}

// inc assumes a non-nil receiver: the field address is taken by the
// caller, which must nil-check first.
func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// Snapshot returns a copy of all counters. Nil-receiver safe: returns a
// zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byCategory := make(map[string]int64, len(c.byCategory))
	for k, v := range c.byCategory {
		byCategory[k] = v
	}

	return Snapshot{
		MessagesIn:       c.messagesIn,
		MessagesOut:      c.messagesOut,
		ByCategory:       byCategory,
		RunsStarted:      c.runsStarted,
		RunsFinished:     c.runsFinished,
		RunsRaised:       c.runsRaised,
		RunsAborted:      c.runsAborted,
		RPCSync:          c.rpcSync,
		RPCAsync:         c.rpcAsync,
		RPCExceptions:    c.rpcExceptions,
		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
		WatchdogsSet:     c.watchdogsSet,
		WatchdogsExpired: c.watchdogsExpired,
		SessionID:        c.sessionID,
	}
}
