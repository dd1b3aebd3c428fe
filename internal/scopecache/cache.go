// Package scopecache stores constructed instances per scope policy: one
// process-wide slot per GLOBAL identifier, one slot per composite scope
// key for CONTEXT identifiers, and nothing at all for NONE.
package scopecache

import (
	"strings"
	"sync"
	"time"

	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// entry is a single cache slot. The slot lock serializes construction for
// its key: concurrent resolutions for the same key block on mu rather
// than double-construct, while resolutions for other keys never contend.
type entry struct {
	key        string
	identifier string
	instance   any
	built      bool
	failed     bool
	disposed   bool
	createdAt  time.Time
	mu         sync.Mutex
}

// Cache implements the per-policy instance stores. All methods are safe
// for concurrent use, including eviction racing an in-flight build: slots
// are published with their lock held until the build resolves, and the
// evictor detaches the slot and then waits on the slot lock, so a build
// that loses the race still completes and has its instance disposed
// exactly once instead of leaking.
type Cache struct {
	global  map[string]*entry
	context map[string]*entry
	mu      sync.Mutex
	log     logger.Logger
}

// New creates an empty cache.
func New(log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Cache{
		global:  make(map[string]*entry),
		context: make(map[string]*entry),
		log:     log.Named("scopecache"),
	}
}

// GetOrCreate returns the cached instance for the identifier under the
// given policy and context hash, constructing it with build on a miss.
// A failed build is never cached; the next call retries construction.
func (c *Cache) GetOrCreate(policy shared.ScopePolicy, id shared.Identifier, contextHash string, build func() (any, error)) (any, error) {
	switch policy {
	case shared.ScopeNone:
		return build()
	case shared.ScopeGlobal:
		return c.getOrCreate(c.global, id.Key(), id.Key(), build)
	default:
		return c.getOrCreate(c.context, contextHash+"@"+id.Key(), id.Key(), build)
	}
}

func (c *Cache) getOrCreate(store map[string]*entry, key, idKey string, build func() (any, error)) (any, error) {
	for {
		c.mu.Lock()
		e, ok := store[key]
		if !ok {
			// A fresh slot is published with its lock already held, so an
			// eviction that detaches it before the build starts still
			// blocks in dispose until the build resolves. Without this the
			// evictor would see an unbuilt slot, skip it, and the built
			// instance would be neither cached nor disposed.
			e = &entry{key: key, identifier: idKey}
			e.mu.Lock()
			store[key] = e
			c.mu.Unlock()
		} else {
			c.mu.Unlock()

			e.mu.Lock()
			if e.built {
				instance := e.instance
				e.mu.Unlock()
				return instance, nil
			}
			if e.failed {
				// A previous builder failed and detached this slot; go back
				// through the map for a fresh one.
				e.mu.Unlock()
				continue
			}
		}

		instance, err := build()
		if err != nil {
			e.failed = true
			c.mu.Lock()
			if store[key] == e {
				delete(store, key)
			}
			c.mu.Unlock()
			e.mu.Unlock()
			return nil, err
		}

		e.instance = instance
		e.built = true
		e.createdAt = time.Now()
		e.mu.Unlock()
		return instance, nil
	}
}

// EvictContext removes every CONTEXT entry cached under the given
// informant's token and disposes the removed instances. Returns the
// number of entries removed.
func (c *Cache) EvictContext(informant string, token shared.Token) int {
	segment := "::" + informant + ":" + string(token) + "::"

	c.mu.Lock()
	var removed []*entry
	for key, e := range c.context {
		if strings.Contains(key, segment) {
			delete(c.context, key)
			removed = append(removed, e)
		}
	}
	c.mu.Unlock()

	return c.dispose(removed)
}

// EvictIdentifier removes the identifier's entries from both stores, used
// when a re-registration must flush instances built by the old
// constructor. Returns the number of entries removed.
func (c *Cache) EvictIdentifier(id shared.Identifier) int {
	key := id.Key()

	c.mu.Lock()
	var removed []*entry
	if e, ok := c.global[key]; ok {
		delete(c.global, key)
		removed = append(removed, e)
	}
	for k, e := range c.context {
		if e.identifier == key {
			delete(c.context, k)
			removed = append(removed, e)
		}
	}
	c.mu.Unlock()

	return c.dispose(removed)
}

// EvictAll drains both stores and disposes everything. Used at injector
// shutdown. Resolutions arriving afterwards simply re-construct.
func (c *Cache) EvictAll() int {
	c.mu.Lock()
	removed := make([]*entry, 0, len(c.global)+len(c.context))
	for key, e := range c.global {
		delete(c.global, key)
		removed = append(removed, e)
	}
	for key, e := range c.context {
		delete(c.context, key)
		removed = append(removed, e)
	}
	c.mu.Unlock()

	return c.dispose(removed)
}

// dispose invokes the Disposable hook on each built, not-yet-disposed
// instance. One entry's failure never blocks disposal of its siblings.
func (c *Cache) dispose(removed []*entry) int {
	count := 0
	for _, e := range removed {
		e.mu.Lock()
		ready := e.built && !e.disposed
		if ready {
			e.disposed = true
		}
		instance := e.instance
		idKey := e.identifier
		e.mu.Unlock()

		if !ready {
			continue
		}
		count++

		if disposable, ok := instance.(shared.Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				c.log.Warn("instance cleanup failed",
					logger.String("identifier", idKey),
					logger.Error(errors.ErrCleanupError(idKey, err)),
				)
			}
		}
	}
	return count
}

// Stats reports the number of live entries per store.
type Stats struct {
	Global  int `json:"global"`
	Context int `json:"context"`
}

// GetStats returns current cache occupancy.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Global: len(c.global), Context: len(c.context)}
}
