package cache

import (
	"testing"

	"dbkernel/pkg/page"
)

func TestCacheSetGetInvalidate(t *testing.T) {
	c, err := New[int64](1000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("t", 42, page.RID{PageID: 1, SlotID: 2})
	c.Wait()

	if v, ok := c.Get("t", 42); !ok || v.PageID != 1 {
		t.Fatalf("Get(42) = (%+v, %v)", v, ok)
	}
	if _, ok := c.Get("t", 43); ok {
		t.Fatalf("Get(43) should miss")
	}

	c.Invalidate("t", 42)
	c.Wait()
	if _, ok := c.Get("t", 42); ok {
		t.Fatalf("Get(42) should miss after Invalidate")
	}
}

func TestCacheKeysAreScopedByTreeName(t *testing.T) {
	c, err := New[int64](1000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Set("users", 1, page.RID{PageID: 10})
	c.Set("orders", 1, page.RID{PageID: 20})
	c.Wait()

	uv, ok := c.Get("users", 1)
	if !ok || uv.PageID != 10 {
		t.Fatalf("Get(users, 1) = (%+v, %v)", uv, ok)
	}
	ov, ok := c.Get("orders", 1)
	if !ok || ov.PageID != 20 {
		t.Fatalf("Get(orders, 1) = (%+v, %v)", ov, ok)
	}
}
