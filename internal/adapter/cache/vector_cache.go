package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"tinyrag/internal/port"
)

// VectorCache is a size-bounded LRU of query embeddings with a TTL.
type VectorCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	key    string
	vector []float32
	stored time.Time
}

func NewVectorCache(maxSize int, ttl time.Duration) *VectorCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VectorCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *VectorCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.stored) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, text)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e.vector, true
}

func (c *VectorCache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[text]; ok {
		e := el.Value.(*entry)
		e.vector = vector
		e.stored = c.now()
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
	c.entries[text] = c.order.PushFront(&entry{key: text, vector: vector, stored: c.now()})
}

// Invalidate drops every entry.
func (c *VectorCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

func (c *VectorCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CachedEmbedder serves repeated single-text embeddings from a VectorCache.
// Batch calls go straight to the wrapped embedder.
type CachedEmbedder struct {
	port.Embedder
	cache *VectorCache
}

func NewCachedEmbedder(embedder port.Embedder, cache *VectorCache) *CachedEmbedder {
	return &CachedEmbedder{Embedder: embedder, cache: cache}
}

func (e *CachedEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}
	v, err := e.Embedder.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Put(text, v)
	return v, nil
}
