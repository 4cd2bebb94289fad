package complete

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	lsp "github.com/sourcegraph/go-lsp"
)

type countingCompleter struct {
	calls atomic.Int64
	items []lsp.CompletionItem
	err   error
}

func (c *countingCompleter) Complete(context.Context, string, int) ([]lsp.CompletionItem, error) {
	c.calls.Add(1)
	return c.items, c.err
}

func TestComplete_CachesResults(t *testing.T) {
	fake := &countingCompleter{items: []lsp.CompletionItem{{Label: "WriteLine"}}}
	cache := NewCache(fake)

	for i := 0; i < 3; i++ {
		items, err := cache.Complete(context.Background(), "Console.", 8)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].Label != "WriteLine" {
			t.Errorf("items = %+v", items)
		}
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("completer called %d times, want 1", got)
	}
}

func TestComplete_DistinctPositionsMiss(t *testing.T) {
	fake := &countingCompleter{}
	cache := NewCache(fake)

	cache.Complete(context.Background(), "Console.", 8)
	cache.Complete(context.Background(), "Console.W", 9)
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("completer called %d times, want 2", got)
	}
}

func TestComplete_EntriesExpire(t *testing.T) {
	fake := &countingCompleter{}
	cache := NewCache(fake)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Complete(context.Background(), "x", 1)
	now = now.Add(cacheTTL + time.Second)
	cache.Complete(context.Background(), "x", 1)
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("completer called %d times, want 2", got)
	}
}

func TestComplete_ErrorsAreNotCached(t *testing.T) {
	fake := &countingCompleter{err: errors.New("service down")}
	cache := NewCache(fake)

	if _, err := cache.Complete(context.Background(), "x", 1); err == nil {
		t.Fatal("error swallowed")
	}
	cache.Complete(context.Background(), "x", 1)
	if got := fake.calls.Load(); got != 2 {
		t.Errorf("completer called %d times, want 2", got)
	}
}

func TestPrefetch_WarmsCache(t *testing.T) {
	fake := &countingCompleter{items: []lsp.CompletionItem{{Label: "Write"}}}
	cache := NewCache(fake)

	cache.Prefetch("Console.", 8)
	cache.Wait("Console.", 8)

	items, err := cache.Complete(context.Background(), "Console.", 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Label != "Write" {
		t.Errorf("items = %+v", items)
	}
	if got := fake.calls.Load(); got != 1 {
		t.Errorf("completer called %d times, want 1", got)
	}
}

func TestPrefetch_FailureIsRetriedByComplete(t *testing.T) {
	fake := &countingCompleter{err: errors.New("not ready")}
	cache := NewCache(fake)

	cache.Prefetch("x", 1)
	cache.Wait("x", 1)

	fake.err = nil
	fake.items = []lsp.CompletionItem{{Label: "x1"}}
	items, err := cache.Complete(context.Background(), "x", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Errorf("items = %+v", items)
	}
}
