package types

// CacheGetRequest looks up a key in the host-owned result cache.
type CacheGetRequest struct {
	Key string
}

// CacheGetReply carries the cached value. An empty value means the key is
// absent; absence is a valid outcome, never an error.
type CacheGetReply struct {
	Value []int32
}

// CachePutRequest inserts or overwrites a key's value.
type CachePutRequest struct {
	Key   string
	Value []int32
}

// CachePutReply reports whether the put was accepted. Succeeded=false
// means the host refused the put (e.g. storage budget exhausted); the
// caller must not assume the value is cached.
type CachePutReply struct {
	Succeeded bool
}

// Category implements Message.
func (CacheGetRequest) Category() Category { return CategoryCache }

// Category implements Message.
func (CacheGetReply) Category() Category { return CategoryCache }

// Category implements Message.
func (CachePutRequest) Category() Category { return CategoryCache }

// Category implements Message.
func (CachePutReply) Category() Category { return CategoryCache }
