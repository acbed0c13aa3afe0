package fingerprint

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// prefixCache remembers registry answers per OUI prefix, including prefixes
// the registry does not know, so a LAN full of randomized MACs does not hit
// SQLite on every device pass. Least recently used prefixes fall out first.
type prefixCache struct {
	limit int

	mu      sync.Mutex
	order   *list.List
	byOUI   map[string]*list.Element
	hits    atomic.Int64
	misses  atomic.Int64
	negHits atomic.Int64
}

type prefixAnswer struct {
	prefix string
	vendor string
	absent bool
}

// PrefixCacheStats are counters since creation or the last Reset.
type PrefixCacheStats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	NegativeHits int64 `json:"negativeHits"`
	Size         int   `json:"size"`
}

func newPrefixCache(limit int) *prefixCache {
	if limit <= 0 {
		limit = 1024
	}
	return &prefixCache{
		limit: limit,
		order: list.New(),
		byOUI: make(map[string]*list.Element, limit),
	}
}

// lookup returns the cached vendor for prefix. found is false when the prefix
// was never cached; absent is true when the registry was asked and had nothing.
func (c *prefixCache) lookup(prefix string) (vendor string, absent, found bool) {
	c.mu.Lock()
	el, ok := c.byOUI[prefix]
	if ok {
		c.order.MoveToFront(el)
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return "", false, false
	}
	ans := el.Value.(*prefixAnswer)
	if ans.absent {
		c.negHits.Add(1)
		return "", true, true
	}
	c.hits.Add(1)
	return ans.vendor, false, true
}

func (c *prefixCache) remember(prefix, vendor string) {
	c.put(&prefixAnswer{prefix: prefix, vendor: vendor})
}

func (c *prefixCache) rememberAbsent(prefix string) {
	c.put(&prefixAnswer{prefix: prefix, absent: true})
}

func (c *prefixCache) put(ans *prefixAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byOUI[ans.prefix]; ok {
		el.Value = ans
		c.order.MoveToFront(el)
		return
	}
	c.byOUI[ans.prefix] = c.order.PushFront(ans)
	for c.order.Len() > c.limit {
		tail := c.order.Back()
		c.order.Remove(tail)
		delete(c.byOUI, tail.Value.(*prefixAnswer).prefix)
	}
}

// reset drops every answer; counters survive.
func (c *prefixCache) reset() {
	c.mu.Lock()
	c.order.Init()
	c.byOUI = make(map[string]*list.Element, c.limit)
	c.mu.Unlock()
}

func (c *prefixCache) stats() PrefixCacheStats {
	c.mu.Lock()
	size := c.order.Len()
	c.mu.Unlock()
	return PrefixCacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		NegativeHits: c.negHits.Load(),
		Size:         size,
	}
}
