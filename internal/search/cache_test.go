package search

import (
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/engine/buffer"
)

func TestIndexCacheRevisionFlush(t *testing.T) {
	c := NewIndexCache(0, 0)
	q := NewQuery("a", true, false)
	rev := buffer.NewRevisionID()
	ix := newMatchIndex(q, rev, []Match{{0, 1}})

	c.Put(ix)
	if got, ok := c.Get(q, rev); !ok || got != ix {
		t.Fatal("expected cached index")
	}

	next := buffer.NewRevisionID()
	if _, ok := c.Get(q, next); ok {
		t.Error("index must not be returned for another revision")
	}

	c.Put(newMatchIndex(NewQuery("b", true, false), next, nil))
	if _, ok := c.Get(q, rev); ok {
		t.Error("storing a newer revision must flush the older one")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}
}

func TestIndexCacheMaxSize(t *testing.T) {
	c := NewIndexCache(time.Minute, 2)
	rev := buffer.NewRevisionID()
	for _, p := range []string{"a", "b", "c"} {
		c.Put(newMatchIndex(NewQuery(p, true, false), rev, nil))
		time.Sleep(time.Millisecond)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", c.Len())
	}
	if _, ok := c.Get(NewQuery("a", true, false), rev); ok {
		t.Error("oldest item should have been evicted")
	}
	if _, ok := c.Get(NewQuery("c", true, false), rev); !ok {
		t.Error("newest item should be cached")
	}
}

func TestIndexCacheTTL(t *testing.T) {
	c := NewIndexCache(10*time.Millisecond, 0)
	rev := buffer.NewRevisionID()
	q := NewQuery("a", false, false)
	c.Put(newMatchIndex(q, rev, nil))

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(q, rev); ok {
		t.Error("expected expired item")
	}

	c.Put(newMatchIndex(q, rev, nil))
	time.Sleep(20 * time.Millisecond)
	if n := c.Cleanup(); n != 1 {
		t.Errorf("expected 1 expired item removed, got %d", n)
	}
}

func TestIndexCacheInvalidate(t *testing.T) {
	c := NewIndexCache(0, 0)
	rev := buffer.NewRevisionID()
	q := NewQuery("a", true, false)
	c.Put(newMatchIndex(q, rev, nil))
	c.Invalidate()
	if _, ok := c.Get(q, rev); ok {
		t.Error("expected empty cache after Invalidate")
	}
}
