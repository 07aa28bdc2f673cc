// Package plancache keeps compiled queries in a bounded LRU cache so that
// repeated queries skip compilation.
package plancache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leapql/pkg/compiler"
)

// DefaultSize is the number of plans kept when no size is configured.
const DefaultSize = 256

// Cache compiles queries once per distinct dialect and query text.
// Failed compilations are not cached.
type Cache struct {
	compiler *compiler.Compiler
	plans    *lru.Cache[string, *compiler.Result]
	inflight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// New creates a cache holding at most size plans. A size <= 0 uses DefaultSize.
func New(c *compiler.Compiler, size int) (*Cache, error) {
	if c == nil {
		return nil, fmt.Errorf("compiler is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	plans, err := lru.New[string, *compiler.Result](size)
	if err != nil {
		return nil, fmt.Errorf("create plan cache: %w", err)
	}
	return &Cache{compiler: c, plans: plans}, nil
}

// Compile returns the cached plan for query, compiling it on a miss.
// Concurrent misses for the same query share one compilation.
func (c *Cache) Compile(query string) (*compiler.Result, error) {
	key := c.compiler.Dialect().Name + "\x00" + query
	if res, ok := c.plans.Get(key); ok {
		c.hits.Add(1)
		return res, nil
	}

	c.misses.Add(1)
	v, err, _ := c.inflight.Do(key, func() (any, error) {
		if res, ok := c.plans.Get(key); ok {
			return res, nil
		}
		res, err := c.compiler.Compile(query)
		if err != nil {
			return nil, err
		}
		c.plans.Add(key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.Result), nil
}

// Stats returns the hit and miss counters and the current size.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.plans.Len()}
}

// Purge drops every cached plan.
func (c *Cache) Purge() {
	c.plans.Purge()
}
