package deque

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewRoundsUpToPowerOfTwo(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{1, 1}, {2, 2}, {3, 4}, {5, 8}, {64, 64}, {65, 128},
	}
	for _, c := range cases {
		d := New[int](c.in)
		if got := d.Cap(); got != c.want {
			t.Errorf("New(%d).Cap() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPushPopLIFO(t *testing.T) {
	d := New[int](8)
	for i := 0; i < 5; i++ {
		if !d.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	for i := 4; i >= 0; i-- {
		got, ok := d.Pop()
		if !ok || got != i {
			t.Fatalf("pop: got (%d, %v), want (%d, true)", got, ok, i)
		}
	}
	if _, ok := d.Pop(); ok {
		t.Fatalf("pop on empty deque should fail")
	}
}

func TestStealFIFO(t *testing.T) {
	d := New[int](8)
	for i := 0; i < 5; i++ {
		d.Push(i)
	}
	for i := 0; i < 5; i++ {
		got, ok := d.Steal()
		if !ok || got != i {
			t.Fatalf("steal: got (%d, %v), want (%d, true)", got, ok, i)
		}
	}
}

func TestPushOverflowReturnsFalse(t *testing.T) {
	d := New[int](4)
	for i := 0; i < 4; i++ {
		if !d.Push(i) {
			t.Fatalf("push %d should succeed within capacity", i)
		}
	}
	if d.Push(99) {
		t.Fatalf("push beyond capacity should return false")
	}
}

// TestConcurrentPushPopStealConsumesEachOnce exercises property 2 from
// spec.md §8: for any interleaving of push/pop/steal, each value is
// consumed at most once and, once the deque is fully drained, at least
// once.
func TestConcurrentPushPopStealConsumesEachOnce(t *testing.T) {
	const n = 20000
	d := New[int](1 << 16)
	for i := 0; i < n; i++ {
		if !d.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}

	var mu sync.Mutex
	var seen []int
	var stolen int64

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := d.Steal()
				if !ok {
					if d.Len() == 0 {
						return
					}
					continue
				}
				atomic.AddInt64(&stolen, 1)
				mu.Lock()
				seen = append(seen, v)
				mu.Unlock()
			}
		}()
	}

	for {
		v, ok := d.Pop()
		if !ok {
			break
		}
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("consumed %d items, want %d", len(seen), n)
	}
	sort.Ints(seen)
	for i, v := range seen {
		if v != i {
			t.Fatalf("item %d missing or duplicated; seen[%d] = %d", i, i, v)
		}
	}
}
