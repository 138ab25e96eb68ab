package ptui

import (
	"fmt"
	"slices"

	"github.com/apex/log"
)

// DefaultCacheCapacity bounds the preview cache. Graphical entries hold a
// decoded image plus its encoded sequence, tens of megabytes each.
const DefaultCacheCapacity = 5

// CacheKey identifies a preview of path rendered into a width x height pane.
func CacheKey(path string, width, height int) string {
	return fmt.Sprintf("%s:%dx%d", path, width, height)
}

// PreviewCache is a bounded map with insertion-order eviction. It is owned
// by the UI goroutine and is not safe for concurrent use.
type PreviewCache struct {
	capacity int
	entries  map[string]PreviewContent
	order    []string
}

// NewPreviewCache returns an empty cache. A capacity below 1 means
// DefaultCacheCapacity.
func NewPreviewCache(capacity int) *PreviewCache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &PreviewCache{
		capacity: capacity,
		entries:  make(map[string]PreviewContent, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *PreviewCache) Get(key string) (PreviewContent, bool) {
	content, ok := c.entries[key]
	return content, ok
}

// Put stores content under key. A new key evicts the oldest insertion when
// the cache is full; an existing key keeps its position.
func (c *PreviewCache) Put(key string, content PreviewContent) {
	if _, ok := c.entries[key]; ok {
		c.entries[key] = content
		return
	}
	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		log.WithField("key", oldest).Debug("evicted preview")
	}
	c.entries[key] = content
	c.order = append(c.order, key)
}

// GetOrCompute returns the cached content for key, calling compute and
// storing its result on a miss.
func (c *PreviewCache) GetOrCompute(key string, compute func() PreviewContent) PreviewContent {
	if content, ok := c.entries[key]; ok {
		return content
	}
	content := compute()
	c.Put(key, content)
	return content
}

func (c *PreviewCache) Invalidate(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
}

func (c *PreviewCache) InvalidateAll() {
	clear(c.entries)
	c.order = c.order[:0]
}

func (c *PreviewCache) Len() int {
	return len(c.entries)
}

// Keys returns the cached keys from oldest to newest.
func (c *PreviewCache) Keys() []string {
	return slices.Clone(c.order)
}
