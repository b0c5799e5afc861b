package common

import (
	"fmt"
	"sync"
)

// ParamLoader fetches the value for a parameter name on cache miss.
type ParamLoader func(name string) (string, error)

// ParamCache memoizes parameter lookups for the lifetime of the process.
// It is constructed once in main and passed to the components that need
// it; there is deliberately no package-level instance.
type ParamCache struct {
	mu     sync.Mutex
	load   ParamLoader
	values map[string]string
}

// NewParamCache creates a ParamCache backed by the given loader.
func NewParamCache(load ParamLoader) *ParamCache {
	return &ParamCache{
		load:   load,
		values: make(map[string]string),
	}
}

// Get returns the cached value for name, loading and caching it on first use.
func (c *ParamCache) Get(name string) (string, error) {
	if name == "" {
		return "", NewConfig("parameter name missing")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[name]; ok {
		return v, nil
	}
	v, err := c.load(name)
	if err != nil {
		return "", fmt.Errorf("load parameter %q: %w", name, err)
	}
	c.values[name] = v
	return v, nil
}
