package recognizer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/video-stream/transcriber/internal/device"
)

type cacheKey struct {
	kind Kind
	size string
}

func (k cacheKey) String() string {
	return string(k.kind) + "/" + k.size
}

// Cache memoizes loaded engines per (kind, model size) for the process lifetime.
// Hits never lock; concurrent misses for one key share a single load.
type Cache struct {
	device  device.Kind
	loaders map[Kind]Loader

	engines sync.Map // cacheKey -> Engine
	group   singleflight.Group
}

// NewCache creates an engine cache for the selected device.
func NewCache(dev device.Kind, loaders map[Kind]Loader) *Cache {
	return &Cache{device: dev, loaders: loaders}
}

// Device returns the device engines are loaded for.
func (c *Cache) Device() device.Kind {
	return c.device
}

// Get returns the engine for kind and size, loading it on first use.
// Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, kind Kind, size string) (Engine, error) {
	key := cacheKey{kind: kind, size: size}
	if e, ok := c.engines.Load(key); ok {
		return e.(Engine), nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A flight that finished between our Load and Do has already stored the engine.
		if e, ok := c.engines.Load(key); ok {
			return e, nil
		}
		return c.load(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

func (c *Cache) load(ctx context.Context, key cacheKey) (Engine, error) {
	loader, ok := c.loaders[key.kind]
	if !ok {
		return nil, fmt.Errorf("no loader registered for engine %q", key.kind)
	}

	devName, precision := PolicyFor(key.kind, c.device)
	log.Printf("[recognizer] loading %s model %q (device=%s precision=%s)", key.kind, key.size, devName, precision)

	start := time.Now()
	engine, err := loader.Load(ctx, LoadSpec{
		Kind:      key.kind,
		ModelSize: key.size,
		Device:    devName,
		Precision: precision,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s model %q: %w", key.kind, key.size, err)
	}

	c.engines.Store(key, engine)
	log.Printf("[recognizer] loaded %s model %q in %s", key.kind, key.size, time.Since(start).Round(time.Millisecond))
	return engine, nil
}

// Loaded lists the cached engines as "kind/size", sorted.
func (c *Cache) Loaded() []string {
	keys := []string{}
	c.engines.Range(func(k, _ any) bool {
		keys = append(keys, k.(cacheKey).String())
		return true
	})
	sort.Strings(keys)
	return keys
}
