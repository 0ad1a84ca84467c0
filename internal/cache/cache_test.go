// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache reported a hit")
	}

	c.Set("k", "v")
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get(k) = (%q, %v), want (v, true)", got, ok)
	}
}

func TestEntriesExpire(t *testing.T) {
	c := New[int](10 * time.Millisecond)
	c.Set("k", 42)

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}
	if stats := c.Stats(); stats.LiveEntries != 0 {
		t.Errorf("LiveEntries = %d, want 0", stats.LiveEntries)
	}
}

func TestGetOrFillCachesResult(t *testing.T) {
	c := New[string](time.Minute)
	var fills int32

	fill := func(context.Context) (string, error) {
		atomic.AddInt32(&fills, 1)
		return "value", nil
	}

	v, fromCache, err := c.GetOrFill(context.Background(), "k", fill)
	if err != nil || v != "value" || fromCache {
		t.Fatalf("first GetOrFill = (%q, %v, %v), want (value, false, nil)", v, fromCache, err)
	}

	v, fromCache, err = c.GetOrFill(context.Background(), "k", fill)
	if err != nil || v != "value" || !fromCache {
		t.Fatalf("second GetOrFill = (%q, %v, %v), want (value, true, nil)", v, fromCache, err)
	}

	if n := atomic.LoadInt32(&fills); n != 1 {
		t.Errorf("fill ran %d times, want 1", n)
	}
}

func TestGetOrFillErrorNotCached(t *testing.T) {
	c := New[string](time.Minute)
	boom := errors.New("boom")

	_, _, err := c.GetOrFill(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	// A later fill must run and succeed.
	v, fromCache, err := c.GetOrFill(context.Background(), "k", func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil || v != "recovered" || fromCache {
		t.Errorf("retry GetOrFill = (%q, %v, %v), want (recovered, false, nil)", v, fromCache, err)
	}
}

func TestGetOrFillSingleFlight(t *testing.T) {
	c := New[int](time.Minute)
	var fills int32
	release := make(chan struct{})

	fill := func(context.Context) (int, error) {
		atomic.AddInt32(&fills, 1)
		<-release
		return 7, nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]int, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrFill(context.Background(), "k", fill)
			if err != nil {
				t.Errorf("waiter %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}

	// Give the goroutines time to pile up on the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&fills); n != 1 {
		t.Errorf("fill ran %d times, want 1", n)
	}
	for i, v := range results {
		if v != 7 {
			t.Errorf("waiter %d got %d, want 7", i, v)
		}
	}
}

func TestInvalidate(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Invalidate()

	if _, ok := c.Get("a"); ok {
		t.Error("entry survived Invalidate")
	}
	if stats := c.Stats(); stats.Entries != 0 {
		t.Errorf("Entries = %d after Invalidate, want 0", stats.Entries)
	}
}

func TestKeyStability(t *testing.T) {
	k1 := Key("pipeline", "asset-1", "Turkey")
	k2 := Key("pipeline", "asset-1", "Turkey")
	if k1 != k2 {
		t.Error("identical parts produced different keys")
	}
	if len(k1) != 32 {
		t.Errorf("key length = %d, want 32", len(k1))
	}

	if Key("a", "b") == Key("a", "c") {
		t.Error("different parts produced the same key")
	}
	// Joining must not be ambiguous across part boundaries.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("part boundaries are ambiguous")
	}
}
