// Package cache keeps rendered catalog responses so repeated GETs for questions
// and metadata skip JSON encoding. Entries are dropped wholesale on catalog reload.
package cache

import (
	"bytes"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ZanzyTHEbar/elkquiz/internal/monitoring"
)

// Metrics receives hit and miss counts.
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// Entry is one cached response.
type Entry struct {
	Status      int
	ContentType string
	Body        []byte
}

// Cache is a bounded, TTL-limited response cache.
type Cache struct {
	items  *expirable.LRU[string, Entry]
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		items: expirable.NewLRU[string, Entry](size, nil, ttl),
		ttl:   ttl,
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (Entry, bool) {
	entry, ok := c.items.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return entry, ok
}

// Set stores an item in the cache
func (c *Cache) Set(key string, entry Entry) {
	c.items.Add(key, entry)
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.items.Remove(key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.items.Purge()
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	return c.items.Len()
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	return map[string]interface{}{
		"items":       c.items.Len(),
		"hits":        c.hits.Load(),
		"misses":      c.misses.Load(),
		"ttl_seconds": c.ttl.Seconds(),
	}
}

// Key identifies a GET response by path and query.
func Key(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// Middleware serves cached GET responses and stores successful ones. Mount it
// only on routes whose output depends on the catalog alone.
func (c *Cache) Middleware(metrics Metrics, logger *monitoring.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := Key(ctx.Request)
		if entry, found := c.Get(key); found {
			metrics.IncrementCacheHit()
			logger.CacheLogger("get", key, true, c.Size())
			ctx.Header("X-Cache", "HIT")
			ctx.Data(entry.Status, entry.ContentType, entry.Body)
			ctx.Abort()
			return
		}

		metrics.IncrementCacheMiss()
		logger.CacheLogger("get", key, false, c.Size())

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Header("X-Cache", "MISS")
		ctx.Next()

		if wrapper.Status() == http.StatusOK && len(ctx.Errors) == 0 {
			c.Set(key, Entry{
				Status:      http.StatusOK,
				ContentType: wrapper.Header().Get("Content-Type"),
				Body:        bytes.Clone(wrapper.body.Bytes()),
			})
			logger.CacheLogger("set", key, false, c.Size())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
