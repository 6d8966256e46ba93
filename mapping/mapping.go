// Package mapping persists matches between canonical catalog ids and provider-native ids.
//
// The registry is append-mostly: entries are overwritten only when a fresh
// successful match is found, and a stale entry is never removed just because a
// provider is temporarily unavailable.
package mapping

import (
	"fmt"
	"sync"

	"github.com/anilust-cli/anilust/filesystem"
	"github.com/anilust-cli/anilust/log"
	"github.com/anilust-cli/anilust/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// registryData defines the structured format for persisting mappings to disk.
type registryData struct {
	Mappings map[string]string `json:"mappings"`
}

// Registry provides a thread-safe, disk-backed store of provider mappings.
type Registry struct {
	internal *gache.Cache[*registryData]
	mu       sync.RWMutex
}

// New creates a registry persisted at the given path.
func New(path string) *Registry {
	return &Registry{
		internal: gache.New[*registryData](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

// compositeKey joins the canonical id and provider name into the storage key.
func compositeKey(canonicalID, provider string) string {
	return fmt.Sprintf("%s_%s", canonicalID, provider)
}

// Get retrieves the provider-native id mapped to the given canonical id, if any.
// A store that cannot be read or parsed reports absence, never an error.
func (r *Registry) Get(canonicalID, provider string) mo.Option[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, expired, err := r.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[string]()
	}

	if id, ok := data.Mappings[compositeKey(canonicalID, provider)]; ok && id != "" {
		return mo.Some(id)
	}

	return mo.None[string]()
}

// Put persists a fresh match, overwriting any previous mapping for the same key.
// Persistence is best-effort: a write failure is logged and swallowed, the
// mapping simply will not be remembered next session.
func (r *Registry) Put(canonicalID, provider, nativeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, expired, err := r.internal.Get()
	if err != nil || expired || data == nil {
		data = &registryData{Mappings: make(map[string]string)}
	}

	data.Mappings[compositeKey(canonicalID, provider)] = nativeID

	if err := r.internal.Set(data); err != nil {
		log.Warnf("persist mapping %s/%s: %v", canonicalID, provider, err)
	}
}

// defaultRegistry is the shared registry backed by the standard mappings path.
var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry at where.Mappings().
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(where.Mappings())
	})
	return defaultRegistry
}
