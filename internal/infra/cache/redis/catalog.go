package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rentacar/internal/app/middleware"
	"rentacar/internal/app/queries"
)

const (
	catalogPrefix     = "rentacar:catalog:"
	catalogVersionKey = catalogPrefix + "version"
	defaultCatalogTTL = time.Minute
)

// CatalogCache serves registered read queries from redis. Entries are keyed
// by a version counter, so Invalidate drops every cached result at once and
// stale keys age out by TTL.
type CatalogCache struct {
	store  kv
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	decoders map[string]func([]byte) (any, error)
}

func NewCatalogCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	return newCatalogCache(redisKV{client: client}, ttl, logger)
}

func newCatalogCache(store kv, ttl time.Duration, logger *slog.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogCache{store: store, ttl: ttl, logger: logger, decoders: make(map[string]func([]byte) (any, error))}
}

// Cache marks results of the query with the given key as cacheable. R must
// be the handler's result type.
func Cache[R any](c *CatalogCache, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoders[key] = func(data []byte) (any, error) {
		var out R
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Invalidate makes every cached entry unreachable.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.store.Incr(ctx, catalogVersionKey)
}

// Middleware answers registered queries from cache and stores fresh results.
// Redis failures fall through to the handler.
func (c *CatalogCache) Middleware() middleware.QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			decode, ok := c.decoder(q.Key())
			if !ok {
				return next.Ask(ctx, q)
			}
			key, err := c.entryKey(ctx, q)
			if err != nil {
				c.logger.WarnContext(ctx, "catalog cache unavailable", "query", q.Key(), "error", err)
				return next.Ask(ctx, q)
			}
			if raw, hit, err := c.store.Get(ctx, key); err == nil && hit {
				if res, err := decode([]byte(raw)); err == nil {
					return res, nil
				}
			}
			res, err := next.Ask(ctx, q)
			if err != nil {
				return nil, err
			}
			if data, err := json.Marshal(res); err == nil {
				if err := c.store.Set(ctx, key, string(data), c.ttl); err != nil {
					c.logger.WarnContext(ctx, "catalog cache write failed", "query", q.Key(), "error", err)
				}
			}
			return res, nil
		})
	}
}

func (c *CatalogCache) decoder(key string) (func([]byte) (any, error), bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.decoders[key]
	return d, ok
}

func (c *CatalogCache) entryKey(ctx context.Context, q queries.Query) (string, error) {
	version, _, err := c.store.Get(ctx, catalogVersionKey)
	if err != nil {
		return "", err
	}
	if version == "" {
		version = "0"
	}
	body, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return catalogPrefix + version + ":" + q.Key() + ":" + hex.EncodeToString(sum[:]), nil
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}
