package calendar

import (
	"errors"
	"sync/atomic"
)

// CacheKey identifies one memoized holiday year.
type CacheKey struct {
	Country string
	State   string
	Year    int
}

// Cache memoizes provider results. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key CacheKey) ([]Holiday, bool)
	Set(key CacheKey, holidays []Holiday)
	Clear()
	Len() int
}

// MemoryCache is a copy-on-write map: readers never lock, writers replace the
// whole map. Entries are write-once per key.
type MemoryCache struct {
	entries atomic.Pointer[map[CacheKey][]Holiday]
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	empty := make(map[CacheKey][]Holiday)
	c.entries.Store(&empty)
	return c
}

func (c *MemoryCache) Get(key CacheKey) ([]Holiday, bool) {
	m := *c.entries.Load()
	hs, ok := m[key]
	return hs, ok
}

func (c *MemoryCache) Set(key CacheKey, holidays []Holiday) {
	for {
		old := c.entries.Load()
		if _, exists := (*old)[key]; exists {
			return
		}
		next := make(map[CacheKey][]Holiday, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[key] = holidays
		if c.entries.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (c *MemoryCache) Clear() {
	empty := make(map[CacheKey][]Holiday)
	c.entries.Store(&empty)
}

func (c *MemoryCache) Len() int {
	return len(*c.entries.Load())
}

// NopCache never stores anything; every lookup reaches the provider.
type NopCache struct{}

func (NopCache) Get(CacheKey) ([]Holiday, bool) { return nil, false }
func (NopCache) Set(CacheKey, []Holiday)        {}
func (NopCache) Clear()                         {}
func (NopCache) Len() int                       { return 0 }

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
