package cache

import (
	"testing"
	"time"
)

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := New[string, int](2, 0)
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	c.Add("c", 3) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestLRU_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New[int, string](4, time.Minute)
	c.now = func() time.Time { return now }

	c.Add(1, "one")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get(1); !ok {
		t.Fatal("entry expired too early")
	}
	now = now.Add(31 * time.Second)
	if _, ok := c.Get(1); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not dropped, Len = %d", c.Len())
	}
}

func TestLRU_UpdateAndRemove(t *testing.T) {
	c := New[string, int](2, 0)
	c.Add("a", 1)
	c.Add("a", 5)
	if v, _ := c.Get("a"); v != 5 {
		t.Fatalf("update lost, got %d", v)
	}
	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("removed key still present")
	}
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New[string, int](0, 0)
}
