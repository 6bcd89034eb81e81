package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"

	"hotel_revenue/internal/adapters/observability"
)

// Cache is a two-tier JSON cache: an in-process LRU in front of redis.
// A redis hit backfills the local tier.
type Cache struct {
	c        *redis.Client
	local    *ccache.Cache[[]byte]
	localTTL time.Duration
}

func New(addr, pass string, db int, localTTL time.Duration) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), localTTL)
}

// NewWithClient wraps an existing client. localTTL <= 0 disables the local tier.
func NewWithClient(c *redis.Client, localTTL time.Duration) *Cache {
	cc := &Cache{c: c, localTTL: localTTL}
	if localTTL > 0 {
		cc.local = ccache.New(ccache.Configure[[]byte]().MaxSize(2000))
	}
	return cc
}

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if r.local != nil {
		if it := r.local.Get(key); it != nil && !it.Expired() {
			observability.ObserveCache("local", "hit")
			return true, json.Unmarshal(it.Value(), dst)
		}
		observability.ObserveCache("local", "miss")
	}

	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	if r.local != nil {
		r.local.Set(key, v, r.localTTL)
	}
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if r.local != nil {
		ttl := r.localTTL
		if remote := time.Duration(ttlSec) * time.Second; remote > 0 && remote < ttl {
			ttl = remote
		}
		r.local.Set(key, b, ttl)
		observability.ObserveCache("local", "set")
	}
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	if r.local != nil {
		r.local.Delete(key)
		observability.ObserveCache("local", "del")
	}
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, key).Err()
}

func (r *Cache) Close() error {
	if r.local != nil {
		r.local.Stop()
	}
	return r.c.Close()
}
