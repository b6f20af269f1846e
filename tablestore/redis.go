package tablestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lexgen/lexgen/automaton"
)

const redisKeyPrefix = "lexgen:table:"

// RedisStore keeps documents in Redis with an optional expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects lazily to the Redis server at addr. A zero ttl
// keeps documents until evicted by the server.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		ttl: ttl,
	}
}

// Get fetches the document for digest.
func (r *RedisStore) Get(ctx context.Context, digest string) (*automaton.Document, bool, error) {
	if err := checkDigest(digest); err != nil {
		return nil, false, err
	}
	cached, err := r.client.Get(ctx, redisKeyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetching table %s: %w", digest, err)
	}
	doc, err := automaton.Decode(strings.NewReader(cached), "json")
	if err != nil {
		return nil, false, fmt.Errorf("fetching table %s: %w", digest, err)
	}
	return doc, true, nil
}

// Put stores the document for digest.
func (r *RedisStore) Put(ctx context.Context, digest string, doc *automaton.Document) error {
	if err := checkDigest(digest); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := automaton.Encode(&buf, doc, "json"); err != nil {
		return fmt.Errorf("storing table %s: %w", digest, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+digest, buf.String(), r.ttl).Err(); err != nil {
		return fmt.Errorf("storing table %s: %w", digest, err)
	}
	return nil
}

// Close closes the client connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
