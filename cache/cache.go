package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/config"
)

// The cache holds objects that are expensive to build and safe to share
// between games, such as board layouts and their neighbor tables. A server
// answering many move requests on the same map builds it once.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

func (c *cache) load(cfg *config.Config, key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading-into-cache")

	obj, err := loadFunc(cfg, key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting-obj-from-cache")
		return obj, nil
	}
	if err := c.load(cfg, key, loadFunc); err != nil {
		return nil, err
	}
	return c.objects[key], nil
}

// Store puts an already-built object into the cache.
func (c *cache) store(key string, obj any) {
	c.Lock()
	defer c.Unlock()
	c.objects[key] = obj
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

var createOnce sync.Once

func ensureCache() {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
}

// Load returns the object cached under name, calling loadFunc to build it
// the first time.
func Load(cfg *config.Config, name string, loadFunc loadFunc) (any, error) {
	ensureCache()
	return GlobalObjectCache.get(cfg, name, loadFunc)
}

// Store caches obj under name, replacing anything already there.
func Store(name string, obj any) {
	ensureCache()
	GlobalObjectCache.store(name, obj)
}
