package config

import (
	"fmt"
	"time"
)

// Config represents a sideband.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Session SessionConfig `yaml:"session"`
	Cache   CacheConfig   `yaml:"cache"`
	Trace   TraceConfig   `yaml:"trace"`
}

// SessionConfig holds exchange defaults from the config file.
type SessionConfig struct {
	// ArenaBytes is the exchange arena capacity.
	ArenaBytes int `yaml:"arena_bytes"`
	// FifoDepth is the per-channel FIFO depth channels reset to.
	FifoDepth uint16 `yaml:"fifo_depth"`
	// MaxResultBytes bounds one RPC result value.
	MaxResultBytes int `yaml:"max_result_bytes"`
}

// CacheConfig holds result cache defaults from the config file.
type CacheConfig struct {
	// Backend selects the store: "memory" (default) or "redis".
	Backend string `yaml:"backend"`
	// BudgetBytes is the memory store's value budget.
	BudgetBytes int `yaml:"budget_bytes"`
	// RedisURL is the redis connection URL for the redis backend.
	RedisURL string `yaml:"redis_url"`
	// KeyPrefix namespaces cache keys in redis.
	KeyPrefix string `yaml:"key_prefix"`
	// Timeout bounds one redis operation.
	Timeout Duration `yaml:"timeout"`
}

// TraceConfig holds journal defaults from the config file.
type TraceConfig struct {
	// Path is where session journals are written.
	Path string `yaml:"path"`
	// Archive configures journal upload to S3-compatible storage.
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig holds journal archive defaults from the config file.
type ArchiveConfig struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
