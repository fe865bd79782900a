package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New[string](time.Minute)
	defer c.Close()

	c.Set("k", "v")
	if got, ok := c.Get("k"); !ok || got != "v" {
		t.Errorf("expected v, got %q (ok=%v)", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](10 * time.Millisecond)
	defer c.Close()

	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to be a miss")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := New[int](time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after Delete")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("expected miss after Clear")
	}
}
