package ids

import (
	"sort"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewMessageIDIsValidULID(t *testing.T) {
	id := NewMessageID()
	if _, err := ulid.ParseStrict(id); err != nil {
		t.Fatalf("generated id %q is not a valid ULID: %v", id, err)
	}
}

func TestNewMessageIDIsMonotonic(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = NewMessageID()
	}

	if !sort.StringsAreSorted(ids) {
		t.Fatal("sequentially generated ids are not sorted")
	}

	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNewMessageIDConcurrentUse(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 50

	var mu sync.Mutex
	seen := map[string]bool{}

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := NewMessageID()
				mu.Lock()
				if seen[id] {
					mu.Unlock()
					t.Errorf("duplicate id under concurrency: %q", id)
					return
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}
