// Package complete provides completion candidates for the line editor.
// Results from the underlying completer are cached briefly, letting the
// editor prefetch candidates in the background while the user types.
package complete

import (
	"context"
	"sync"
	"time"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/kiln-shell/kiln/pkg/logutil"
)

var logger = logutil.GetLogger("[complete] ")

// Completer produces completion items for a caret position in a source
// fragment. The byte offset addresses the position of the caret.
type Completer interface {
	Complete(ctx context.Context, code string, offset int) ([]lsp.CompletionItem, error)
}

const (
	cacheTTL       = time.Minute
	prefetchBudget = 2 * time.Second
)

type cacheKey struct {
	code   string
	offset int
}

type cacheEntry struct {
	items   []lsp.CompletionItem
	expires time.Time
}

// Cache wraps a Completer with a time-bounded result cache.
type Cache struct {
	completer Completer
	now       func() time.Time

	mu       sync.Mutex
	entries  map[cacheKey]cacheEntry
	inflight map[cacheKey]chan struct{}
}

// NewCache creates a cache around the given completer.
func NewCache(completer Completer) *Cache {
	return &Cache{
		completer: completer,
		now:       time.Now,
		entries:   make(map[cacheKey]cacheEntry),
		inflight:  make(map[cacheKey]chan struct{}),
	}
}

// Complete returns completion items for the caret position, from the
// cache when a fresh entry exists.
func (c *Cache) Complete(ctx context.Context, code string, offset int) ([]lsp.CompletionItem, error) {
	key := cacheKey{code, offset}
	if items, ok := c.lookup(key); ok {
		return items, nil
	}
	items, err := c.completer.Complete(ctx, code, offset)
	if err != nil {
		return nil, err
	}
	c.fill(key, items)
	return items, nil
}

// Prefetch warms the cache for a caret position without blocking. At
// most one fetch per position is in flight at a time; errors are logged
// and dropped since a later Complete call will retry.
func (c *Cache) Prefetch(code string, offset int) {
	key := cacheKey{code, offset}
	c.mu.Lock()
	if _, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return
	}
	if entry, ok := c.entries[key]; ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return
	}
	done := make(chan struct{})
	c.inflight[key] = done
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
			close(done)
		}()
		ctx, cancel := context.WithTimeout(context.Background(), prefetchBudget)
		defer cancel()
		items, err := c.completer.Complete(ctx, code, offset)
		if err != nil {
			logger.Println("prefetch failed:", err)
			return
		}
		c.fill(key, items)
	}()
}

// Wait blocks until no prefetch is in flight for the caret position.
// It exists for tests and for editor teardown.
func (c *Cache) Wait(code string, offset int) {
	c.mu.Lock()
	done, ok := c.inflight[cacheKey{code, offset}]
	c.mu.Unlock()
	if ok {
		<-done
	}
}

func (c *Cache) lookup(key cacheKey) ([]lsp.CompletionItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.items, true
}

func (c *Cache) fill(key cacheKey, items []lsp.CompletionItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{items: items, expires: c.now().Add(cacheTTL)}
}
