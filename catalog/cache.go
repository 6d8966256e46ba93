package catalog

import (
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// cacheData defines the structured format for persisting catalog records to disk.
type cacheData[K comparable, T any] struct {
	Entries map[K]T `json:"entries"`
}

// cacher provides a generic, thread-safe wrapper for high-level caching operations.
type cacher[K comparable, T any] struct {
	internal *gache.Cache[*cacheData[K, T]]
	mu       sync.RWMutex
}

func newCacher[K comparable, T any](path string, lifetime time.Duration) *cacher[K, T] {
	return &cacher[K, T]{
		internal: gache.New[*cacheData[K, T]](
			&gache.Options{
				Path:       path,
				Lifetime:   lifetime,
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

// Get retrieves a value from the cache associated with the specified key.
func (c *cacher[K, T]) Get(key K) mo.Option[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[T]()
	}

	if entry, ok := data.Entries[key]; ok {
		return mo.Some(entry)
	}

	return mo.None[T]()
}

// Set persists a key-value pair to the cache.
func (c *cacher[K, T]) Set(key K, t T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		data = &cacheData[K, T]{Entries: make(map[K]T)}
	}

	data.Entries[key] = t
	return c.internal.Set(data)
}

// Info records live in two tiers: releasing titles go stale quickly since new
// episodes keep appearing, finished ones barely change. Lifetimes come from
// config, so the cachers are built lazily after setup.
var (
	infoOnce        sync.Once
	releasingCacher *cacher[int, *Media]
	completedCacher *cacher[int, *Media]

	// pageCacher memoizes browse pages (trending, recent) for a short while.
	pageOnce   sync.Once
	pageCacher *cacher[string, *Page]
)

func infoCacher(releasing bool) *cacher[int, *Media] {
	infoOnce.Do(func() {
		releasingCacher = newCacher[int, *Media](
			filepath.Join(where.Cache(), "catalog_releasing_cache.json"),
			time.Duration(viper.GetInt(key.CatalogResyncReleasing))*time.Hour,
		)
		completedCacher = newCacher[int, *Media](
			filepath.Join(where.Cache(), "catalog_completed_cache.json"),
			time.Duration(viper.GetInt(key.CatalogResyncCompleted))*time.Hour,
		)
	})

	if releasing {
		return releasingCacher
	}
	return completedCacher
}

func pages() *cacher[string, *Page] {
	pageOnce.Do(func() {
		pageCacher = newCacher[string, *Page](
			filepath.Join(where.Cache(), "catalog_page_cache.json"),
			time.Hour,
		)
	})
	return pageCacher
}

func cachedInfo(id int) mo.Option[*Media] {
	// The record's tier is unknown before the lookup, so both are consulted.
	if m, ok := infoCacher(true).Get(id).Get(); ok {
		return mo.Some(m)
	}
	return infoCacher(false).Get(id)
}

func storeInfo(m *Media) error {
	return infoCacher(m.Releasing()).Set(m.ID, m)
}

func pageKey(operation string, page int) string {
	return operation + "_" + strconv.Itoa(page)
}
