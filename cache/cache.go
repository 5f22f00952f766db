// Package cache holds objects that are expensive to build and are asked for
// repeatedly: classification tables loaded from disk, and class
// distributions for population states seen before.
package cache

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/bagodds/bagodds/config"
)

// Cache is a mutex-guarded keyed store. Values are loaded on first use.
type Cache[K comparable, V any] struct {
	sync.Mutex
	objects map[K]V
	hits    int
	misses  int
}

// New makes an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{objects: make(map[K]V)}
}

// Get returns the cached value for key, if present.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.Lock()
	defer c.Unlock()
	v, ok := c.objects[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Put stores v under key, replacing any earlier value.
func (c *Cache[K, V]) Put(key K, v V) {
	c.Lock()
	defer c.Unlock()
	c.objects[key] = v
}

// Load returns the value for key, calling load to build it on a miss. The
// lock is held while load runs, so concurrent callers asking for the same
// key never build it twice.
func (c *Cache[K, V]) Load(key K, load func() (V, error)) (V, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		c.hits++
		return obj, nil
	}
	c.misses++
	obj, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.objects[key] = obj
	return obj, nil
}

// Len is the number of cached values.
func (c *Cache[K, V]) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}

// Stats returns hit and miss counts.
func (c *Cache[K, V]) Stats() (hits, misses int) {
	c.Lock()
	defer c.Unlock()
	return c.hits, c.misses
}

// Clear drops every value.
func (c *Cache[K, V]) Clear() {
	c.Lock()
	defer c.Unlock()
	clear(c.objects)
	c.hits, c.misses = 0, 0
}

// Key hashes a population state, a draw size, and a table fingerprint into
// a cache key.
func Key(counts []int, drawSize int, fingerprint uint64) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, n := range counts {
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		h.Write(buf[:])
	}
	// separator so {1,2},3 and {1},2,3 differ
	binary.LittleEndian.PutUint64(buf[:], ^uint64(0))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(drawSize))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], fingerprint)
	h.Write(buf[:])
	return h.Sum64()
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache holds objects loaded by name, such as classification
// tables.
var GlobalObjectCache *Cache[string, any]

var createOnce sync.Once

func CreateGlobalObjectCache() {
	createOnce.Do(func() {
		GlobalObjectCache = New[string, any]()
	})
}

// Load fetches the named object from the global cache, loading it with
// loadFunc the first time.
func Load(cfg *config.Config, name string, loadFunc loadFunc) (any, error) {
	CreateGlobalObjectCache()
	if obj, ok := GlobalObjectCache.Get(name); ok {
		log.Debug().Str("key", name).Msg("getting-obj-from-cache")
		return obj, nil
	}
	return GlobalObjectCache.Load(name, func() (any, error) {
		log.Debug().Str("key", name).Msg("loading-into-cache")
		return loadFunc(cfg, name)
	})
}
