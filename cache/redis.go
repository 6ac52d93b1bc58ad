package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces cache keys in the Redis keyspace.
const DefaultKeyPrefix = "sideband:cache:"

// DefaultRedisTimeout is the default per-operation timeout.
const DefaultRedisTimeout = 5 * time.Second

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// KeyPrefix namespaces keys (default: sideband:cache:).
	KeyPrefix string
	// Timeout is the per-operation timeout (default 5s).
	Timeout time.Duration
	// MaxValueInts refuses puts whose value exceeds this element count.
	// Zero means unlimited.
	MaxValueInts int
}

// Redis is a Store backed by a Redis server, for hosts that share cached
// results across processes or restarts.
type Redis struct {
	config RedisConfig
	client *goredis.Client
}

// NewRedis creates a Redis-backed store from the given config.
// Returns an error if the URL is empty or invalid.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis cache requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRedisTimeout
	}

	return &Redis{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) ([]int32, error) {
	opCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	raw, err := r.client.Get(opCtx, r.config.KeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache: get %q: %w", key, err)
	}
	return decodeValue(raw)
}

// Put implements Store. Puts always replace the prior value; only the
// configured size bound can refuse one.
func (r *Redis) Put(ctx context.Context, key string, value []int32) (bool, error) {
	if r.config.MaxValueInts > 0 && len(value) > r.config.MaxValueInts {
		return false, nil
	}

	opCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	if err := r.client.Set(opCtx, r.config.KeyPrefix+key, encodeValue(value), 0).Err(); err != nil {
		return false, fmt.Errorf("redis cache: put %q: %w", key, err)
	}
	return true, nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}

// encodeValue packs the value as big-endian int32 words, matching the
// wire representation of cache values.
func encodeValue(value []int32) []byte {
	buf := make([]byte, 0, len(value)*4)
	for _, v := range value {
		buf = binary.BigEndian.AppendUint32(buf, uint32(v))
	}
	return buf
}

func decodeValue(raw []byte) ([]int32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("redis cache: value of %d bytes is not int32-aligned", len(raw))
	}
	value := make([]int32, len(raw)/4)
	for i := range value {
		value[i] = int32(binary.BigEndian.Uint32(raw[i*4:]))
	}
	return value, nil
}

var _ Store = (*Redis)(nil)
