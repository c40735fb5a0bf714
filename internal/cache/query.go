package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Query keys.
const (
	PostsListKey  = "posts"
	PostKeyPrefix = "post:%d"
)

// PostTTL bounds how long a cached read may be served without invalidation.
const PostTTL = 5 * time.Minute

// defaultFetchTimeout bounds a shared backend load once no single caller
// owns it.
const defaultFetchTimeout = 30 * time.Second

// PostKey is the detail key of one post.
func PostKey(id int) string {
	return fmt.Sprintf(PostKeyPrefix, id)
}

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// QueryCache is a cache-aside layer over a Store. Reads of one key share a
// single backend call, and a result is only stored when no invalidation of
// that key happened while it was being fetched.
type QueryCache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	fetchTimeout time.Duration

	mu          sync.Mutex
	generations map[string]uint64
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithFetchTimeout bounds each shared backend load. Non-positive values
// keep the default of 30s.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *QueryCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewQueryCache creates a QueryCache. A nil store means an in-memory one.
func NewQueryCache(store Store, ttl time.Duration, logger *slog.Logger, opts ...Option) *QueryCache {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &QueryCache{
		store:        store,
		ttl:          ttl,
		logger:       logger,
		fetchTimeout: defaultFetchTimeout,
		generations:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *QueryCache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// Invalidate marks keys stale. Any read that starts afterwards goes to the
// backend, and fetches already in flight will not repopulate them.
func (c *QueryCache) Invalidate(ctx context.Context, keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		c.generations[k]++
	}
	c.mu.Unlock()

	for _, k := range keys {
		observability.CacheInvalidations.WithLabelValues(family(k)).Inc()
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.WarnContext(ctx, "query cache delete failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// storeIfCurrent writes value unless key was invalidated after gen was read.
// The lock makes the check and the write atomic with respect to Invalidate.
func (c *QueryCache) storeIfCurrent(ctx context.Context, key string, gen uint64, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key] != gen {
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "query cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Fetch returns the cached value of key or loads it with fetch. Store
// failures degrade to a miss; fetch errors are returned unchanged and never
// cached. A cancelled caller stops waiting without aborting the load for
// the other callers of the same key.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "query cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.CacheLookups.WithLabelValues(family(key), "hit").Inc()
			return cached, nil
		}
		_ = c.store.Delete(ctx, key)
	}
	observability.CacheLookups.WithLabelValues(family(key), "miss").Inc()

	gen := c.generation(key)
	ch := c.group.DoChan(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Shared by every waiting caller, so not tied to this one.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		value, err := fetch(loadCtx)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(loadCtx, key, gen, value)
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
