// Package cache memoizes query embeddings in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arturoeanton/vitaldocs-rag/internal/port"
)

const keyPrefix = "vitaldocs:emb:"

// KV is the subset of Redis the embedding cache needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrMiss is returned by KV.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// RedisKV adapts a go-redis client to KV.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV parses a redis:// URL and verifies the server answers.
func NewRedisKV(ctx context.Context, url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisKV{client: client}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// CachedEmbedder serves Embed from the cache when possible. Cache errors are
// logged and never fail the call. EmbedBatch always reaches the provider.
type CachedEmbedder struct {
	next  port.Embedder
	kv    KV
	model string
	ttl   time.Duration
}

var _ port.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps next. model is part of the key so a model change
// never serves stale vectors.
func NewCachedEmbedder(next port.Embedder, kv KV, model string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, kv: kv, model: model, ttl: ttl}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	if b, err := c.kv.Get(ctx, key); err == nil {
		var vec []float32
		if err := json.Unmarshal(b, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		slog.Warn("embedding cache read failed", "error", err)
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(vec); err == nil {
		if err := c.kv.Set(ctx, key, b, c.ttl); err != nil {
			slog.Warn("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + c.model + ":" + hex.EncodeToString(sum[:])
}
