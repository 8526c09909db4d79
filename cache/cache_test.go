package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(Options{Enabled: true, TTL: time.Minute})

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok {
		t.Fatal("expected hit for a")
	}
	if v.(int) != 1 {
		t.Errorf("expected 1, got %v", v)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := New(Options{Enabled: false, TTL: time.Minute})

	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Error("disabled cache should always miss")
	}
	if size, enabled := c.Stats(); size != 0 || enabled {
		t.Errorf("expected size=0 enabled=false, got size=%d enabled=%v", size, enabled)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(Options{Enabled: true, TTL: 10 * time.Millisecond})

	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after expiry")
	}
	if size, _ := c.Stats(); size != 0 {
		t.Errorf("expired entry should be collected on Get, size=%d", size)
	}
}

func TestCacheSetTTLOverride(t *testing.T) {
	c := New(Options{Enabled: true, TTL: 10 * time.Millisecond})

	c.SetTTL("long", 1, time.Minute)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("long"); !ok {
		t.Error("per-entry TTL should override the shorter default")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := New(Options{Enabled: true})

	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry with no TTL should not expire")
	}
}

func TestCacheFIFOEviction(t *testing.T) {
	c := New(Options{Enabled: true, MaxSize: 3})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Set("d", 4) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
	if size, _ := c.Stats(); size != 3 {
		t.Errorf("expected size 3, got %d", size)
	}
}

func TestCacheOverwriteKeepsQueuePosition(t *testing.T) {
	c := New(Options{Enabled: true, MaxSize: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10) // does not refresh a's position
	c.Set("c", 3)  // evicts a, not b

	if _, ok := c.Get("a"); ok {
		t.Error("re-set key should keep its insertion order and be evicted first")
	}
	if v, ok := c.Get("b"); !ok || v.(int) != 2 {
		t.Errorf("expected b=2 to survive, got %v ok=%v", v, ok)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(Options{Enabled: true})

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should miss")
	}

	// Deleting a missing key is a no-op.
	c.Delete("missing")
}

func TestCacheClear(t *testing.T) {
	c := New(Options{Enabled: true})

	for i := range 5 {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	c.Clear()
	if size, _ := c.Stats(); size != 0 {
		t.Errorf("expected empty cache after Clear, size=%d", size)
	}

	// Cache remains usable after Clear.
	c.Set("a", 1)
	if _, ok := c.Get("a"); !ok {
		t.Error("expected hit after Clear and re-set")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(Options{Enabled: true, MaxSize: 100})

	done := make(chan struct{})
	for g := range 8 {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := range 200 {
				key := fmt.Sprintf("k%d", i%50)
				c.Set(key, g)
				c.Get(key)
				if i%10 == 0 {
					c.Delete(key)
				}
			}
		}(g)
	}
	for range 8 {
		<-done
	}
}
