package config

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// validatorCache caches compiled JSON Schema validators by content hash
// so repeated loads don't recompile the embedded schema.
type validatorCache struct {
	mu      sync.RWMutex
	cache   map[string]*jsonschema.Schema
	maxSize int
}

func newValidatorCache(maxSize int) *validatorCache {
	return &validatorCache{
		cache:   make(map[string]*jsonschema.Schema),
		maxSize: maxSize,
	}
}

func (c *validatorCache) get(hash string) (*jsonschema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.cache[hash]
	return v, ok
}

func (c *validatorCache) put(hash string, v *jsonschema.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= c.maxSize {
		c.cache = make(map[string]*jsonschema.Schema)
	}
	c.cache[hash] = v
}
