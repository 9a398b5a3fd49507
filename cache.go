package anyexpr

import (
	"container/list"
	"sync"

	"github.com/zephyrtronium/anyexpr/numeric"
)

// DefaultCacheCapacity is the capacity of a Cache created with a capacity
// that is not positive.
const DefaultCacheCapacity = 256

// Cache holds parsed expressions keyed by their source and function table, so
// that expressions created with the same source and symbol functions share
// parsing work. Once full, it evicts the least recently used expression.
// A Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key  string
	expr *numeric.Expr
}

// NewCache creates a cache holding up to capacity parsed expressions.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Len returns the number of parsed expressions in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of parsed expressions in the cache.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Clear removes all expressions from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	c.mu.Unlock()
}

func (c *Cache) get(key string) (*numeric.Expr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).expr, true
}

func (c *Cache) set(key string, expr *numeric.Expr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).expr = expr
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		if el := c.ll.Back(); el != nil {
			c.ll.Remove(el)
			delete(c.items, el.Value.(*cacheEntry).key)
		}
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, expr: expr})
}

// getOrParse returns the cached expression for key or calls compile to
// create it. Errors are not cached.
func (c *Cache) getOrParse(key string, compile func() (*numeric.Expr, error)) (*numeric.Expr, error) {
	if expr, ok := c.get(key); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.set(key, expr)
	return expr, nil
}
