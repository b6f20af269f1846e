package tablestore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lexgen/lexgen/automaton"
)

// ErrInvalidDigest is returned for keys that are not hex digests.
var ErrInvalidDigest = errors.New("invalid table digest")

// Store keeps compiled table documents keyed by grammar digest.
type Store interface {
	// Get returns the document for digest; ok is false on a miss.
	Get(ctx context.Context, digest string) (doc *automaton.Document, ok bool, err error)
	// Put stores doc under digest, replacing any earlier document.
	Put(ctx context.Context, digest string, doc *automaton.Document) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend   string        `yaml:"backend" json:"backend"`
	Dir       string        `yaml:"dir" json:"dir"`
	RedisAddr string        `yaml:"redis_addr" json:"redis_addr"`
	RedisTTL  time.Duration `yaml:"redis_ttl" json:"redis_ttl"`
	Size      int           `yaml:"size" json:"size"`
}

// DefaultSize bounds the memory backend when Config.Size is unset.
const DefaultSize = 128

// Open returns the backend named by cfg.Backend: "memory" (the default),
// "dir" or "redis".
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		size := cfg.Size
		if size <= 0 {
			size = DefaultSize
		}
		store, err := NewMemoryStore(size)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "dir":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir backend needs a directory")
		}
		store, err := NewDirStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend needs an address")
		}
		return NewRedisStore(cfg.RedisAddr, cfg.RedisTTL), nil
	default:
		return nil, fmt.Errorf("unknown table store backend %q", cfg.Backend)
	}
}

var digestPattern = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

func checkDigest(digest string) error {
	if !digestPattern.MatchString(digest) {
		return fmt.Errorf("%w: %q", ErrInvalidDigest, digest)
	}
	return nil
}
