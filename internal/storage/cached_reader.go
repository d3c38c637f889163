package storage

import (
	"context"
	"sync"
	"time"

	"cardapio/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

const defaultCacheEntries = 256

// RemoteCache is a shared byte cache consulted after the in-process LRU.
type RemoteCache interface {
	GetImage(ctx context.Context, storedName string) ([]byte, error)
	SetImage(ctx context.Context, storedName string, data []byte, ttl time.Duration) error
	DeleteImage(ctx context.Context, storedName string) error
}

// Reader is the read side of a FileStore.
type Reader interface {
	Read(name string) ([]byte, error)
}

// CachedReader serves reads through an in-process LRU, then the remote cache,
// then disk. Stored names are immutable once written, so entries are never
// refreshed; Evict exists only so purged images stop being served.
//
// A disk read that overlaps an Evict is returned to its caller but never
// cached: evictions bumps on every Evict, and Read only fills the caches when
// the counter has not moved since it started.
type CachedReader struct {
	store     Reader
	local     *lru.Cache[string, []byte]
	remote    RemoteCache
	remoteTTL time.Duration
	metrics   *metrics.ImageMetrics

	mu        sync.Mutex
	evictions uint64
}

// NewCachedReader wraps store. remote may be nil.
func NewCachedReader(store Reader, entries int, remote RemoteCache, remoteTTL time.Duration, m *metrics.ImageMetrics) *CachedReader {
	if entries <= 0 {
		entries = defaultCacheEntries
	}
	// lru.New only fails on a non-positive size, guarded above.
	local, _ := lru.New[string, []byte](entries)
	return &CachedReader{
		store:     store,
		local:     local,
		remote:    remote,
		remoteTTL: remoteTTL,
		metrics:   m,
	}
}

// Read returns the bytes for name. ErrNotFound from the store is returned
// unchanged and never cached.
func (c *CachedReader) Read(ctx context.Context, name string) ([]byte, error) {
	if data, ok := c.local.Get(name); ok {
		c.metrics.RecordCacheHit("memory")
		return data, nil
	}

	gen := c.generation()
	if c.remote != nil {
		data, err := c.remote.GetImage(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("component", "image-cache").Str("file", name).Msg("remote cache read failed")
		} else if data != nil {
			c.metrics.RecordCacheHit("redis")
			c.addIfCurrent(name, data, gen)
			return data, nil
		}
	}

	data, err := c.store.Read(name)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordCacheHit("disk")

	if !c.addIfCurrent(name, data, gen) || c.remote == nil {
		return data, nil
	}

	if err := c.remote.SetImage(ctx, name, data, c.remoteTTL); err != nil {
		log.Warn().Err(err).Str("component", "image-cache").Str("file", name).Msg("remote cache write failed")
		return data, nil
	}
	// an Evict that ran during SetImage may have deleted before we wrote
	if c.generation() != gen {
		c.local.Remove(name)
		if err := c.remote.DeleteImage(ctx, name); err != nil {
			log.Warn().Err(err).Str("component", "image-cache").Str("file", name).Msg("remote cache evict failed")
		}
	}
	return data, nil
}

// addIfCurrent caches data unless an Evict ran since gen was taken.
func (c *CachedReader) addIfCurrent(name string, data []byte, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evictions != gen {
		return false
	}
	c.local.Add(name, data)
	return true
}

func (c *CachedReader) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Evict drops name from both cache tiers.
func (c *CachedReader) Evict(ctx context.Context, name string) {
	c.mu.Lock()
	c.evictions++
	c.local.Remove(name)
	c.mu.Unlock()
	if c.remote != nil {
		if err := c.remote.DeleteImage(ctx, name); err != nil {
			log.Warn().Err(err).Str("component", "image-cache").Str("file", name).Msg("remote cache evict failed")
		}
	}
}

// Len reports the number of entries held in memory.
func (c *CachedReader) Len() int {
	return c.local.Len()
}
