package dataset

import (
	"fmt"
	"sync"
	"testing"
)

func TestCache_LoadReusesParse(t *testing.T) {
	cache := NewCache()
	data := []byte("circle,1,2,3,4,5,6,7\n")

	first := cache.Load(data)
	second := cache.Load([]byte("circle,1,2,3,4,5,6,7\n"))
	if first != second {
		t.Error("expected the same dataset for identical bytes")
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}

	other := cache.Load([]byte("square,1,2,3,4,5,6,7\n"))
	if other == first {
		t.Error("expected a different dataset for different bytes")
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2", cache.Len())
	}
}

func TestCache_EvictAndClear(t *testing.T) {
	cache := NewCache()
	a := []byte("a,1,2,3,4,5,6,7")
	b := []byte("b,1,2,3,4,5,6,7")
	cache.Load(a)
	cache.Load(b)

	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("Len after Evict = %d, want 1", cache.Len())
	}
	cache.Evict([]byte("not cached"))
	if cache.Len() != 1 {
		t.Errorf("Len after evicting unknown = %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := NewCache()
	data := []byte("circle,1,2,3,4,5,6,7\nsquare,7,6,5,4,3,2,1\n")

	var wg sync.WaitGroup
	results := make([]*Dataset, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Load(data)
		}(i)
	}
	wg.Wait()

	for i, ds := range results {
		if ds != results[0] {
			t.Errorf("result %d is a different dataset", i)
		}
	}
	if results[0].Len() != 2 {
		t.Errorf("entries = %d, want 2", results[0].Len())
	}
}

func TestCache_Limit(t *testing.T) {
	cache := NewCacheWithLimit(3)
	rows := make([][]byte, 5)
	for i := range rows {
		rows[i] = []byte(fmt.Sprintf("shape%d,1,2,3,4,5,6,7\n", i))
	}

	first := cache.Load(rows[0])
	for _, data := range rows[1:] {
		cache.Load(data)
		if cache.Len() > 3 {
			t.Fatalf("Len = %d, exceeds limit 3", cache.Len())
		}
	}
	if cache.Len() != 3 {
		t.Errorf("Len = %d, want 3", cache.Len())
	}

	// The oldest dataset was dropped, so loading it parses again.
	if again := cache.Load(rows[0]); again == first {
		t.Error("expected the oldest dataset to have been evicted")
	}
	if cache.Len() != 3 {
		t.Errorf("Len after reload = %d, want 3", cache.Len())
	}
	latest := cache.Load(rows[4])
	if cache.Load(rows[4]) != latest {
		t.Error("expected the newest dataset to stay cached")
	}

	// Evicting frees a slot without dropping another entry.
	cache.Evict(rows[4])
	cache.Load(rows[1])
	if cache.Len() != 3 {
		t.Errorf("Len after Evict and Load = %d, want 3", cache.Len())
	}
}

func TestNewCache_DefaultLimit(t *testing.T) {
	cache := NewCache()
	for i := 0; i < 1000; i++ {
		cache.Load([]byte(fmt.Sprintf("shape%d,1,2,3,4,5,6,7\n", i)))
	}
	if cache.Len() != DefaultCacheEntries {
		t.Errorf("Len = %d, want %d", cache.Len(), DefaultCacheEntries)
	}
	if NewCacheWithLimit(0).limit != 1 {
		t.Error("a non-positive limit should be raised to one")
	}
}
