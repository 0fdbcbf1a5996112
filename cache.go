package ioc

import (
	"sync"
)

// instanceCache holds constructed singletons per registration.
// Keying by registration means a replaced registration never serves the
// previous registration's value.
type instanceCache struct {
	instances map[*registration]any
	mu        sync.RWMutex
}

func newInstanceCache() *instanceCache {
	return &instanceCache{
		instances: make(map[*registration]any),
	}
}

// get retrieves a cached instance.
func (c *instanceCache) get(reg *registration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	instance, ok := c.instances[reg]
	return instance, ok
}

// setIfAbsent stores instance unless another goroutine stored one first.
// It returns the value that is cached and whether instance was the one stored.
func (c *instanceCache) setIfAbsent(reg *registration, instance any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.instances[reg]; ok {
		return existing, false
	}
	c.instances[reg] = instance
	return instance, true
}

// delete removes the cached instance for reg.
func (c *instanceCache) delete(reg *registration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, reg)
}

// clear removes all cached instances.
func (c *instanceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = make(map[*registration]any)
}

// count returns the number of cached instances.
func (c *instanceCache) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instances)
}
