package hashmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/chazu/owiz/hash"
)

func TestSetGetRemove(t *testing.T) {
	m := New(4)
	f := &StringFuncs

	m.Set(f, "a", 1)
	m.Set(f, "b", 2)
	m.Set(f, "a", 3)

	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if v, ok := m.Get(f, "a"); !ok || v != 3 {
		t.Errorf("Get(a) = %v, %v; want 3, true", v, ok)
	}
	if !m.Remove(f, "a") {
		t.Error("Remove(a) should report true")
	}
	if _, ok := m.Get(f, "a"); ok {
		t.Error("a should be absent after Remove")
	}
	if m.Remove(f, "a") {
		t.Error("second Remove(a) should report false")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestNilValueIsPresent(t *testing.T) {
	m := New(2)
	m.Set(&StringFuncs, "k", nil)
	v, ok := m.Get(&StringFuncs, "k")
	if !ok || v != nil {
		t.Errorf("Get(k) = %v, %v; want nil, true", v, ok)
	}
}

func TestGrowthScenario(t *testing.T) {
	m := New(4)
	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, k := range keys {
		m.Set(&StringFuncs, k, i)
	}
	if m.BucketCount() < 8 {
		t.Errorf("BucketCount = %d, want >= 8", m.BucketCount())
	}
	for i, k := range keys {
		if v, ok := m.Get(&StringFuncs, k); !ok || v != i {
			t.Errorf("Get(%s) = %v, %v; want %d, true", k, v, ok, i)
		}
	}
}

func TestZeroBucketMap(t *testing.T) {
	var m Map
	if _, ok := m.Get(&IntFuncs, 1); ok {
		t.Error("empty map should report absent")
	}
	if m.Remove(&IntFuncs, 1) {
		t.Error("Remove on empty map should report false")
	}
	m.Set(&IntFuncs, 1, "one")
	if v, ok := m.Get(&IntFuncs, 1); !ok || v != "one" {
		t.Errorf("Get(1) = %v, %v", v, ok)
	}
}

func TestReserveIsMonotonic(t *testing.T) {
	m := New(16)
	m.Reserve(8)
	if m.BucketCount() != 16 {
		t.Errorf("Reserve to smaller size changed BucketCount to %d", m.BucketCount())
	}
	m.Reserve(32)
	if m.BucketCount() != 32 {
		t.Errorf("BucketCount = %d, want 32", m.BucketCount())
	}
}

func TestRehashPreservesNodes(t *testing.T) {
	m := New(2)
	for i := 0; i < 2; i++ {
		m.Set(&IntFuncs, i, i)
	}
	before := map[int]*node{}
	for _, head := range m.buckets {
		for nd := head; nd != nil; nd = nd.next {
			before[nd.key.(int)] = nd
		}
	}

	m.Reserve(64)

	for _, head := range m.buckets {
		for nd := head; nd != nil; nd = nd.next {
			if before[nd.key.(int)] != nd {
				t.Errorf("node for key %v was reallocated", nd.key)
			}
			if nd.hash != hash.Int64(int64(nd.key.(int))) {
				t.Errorf("cached hash for key %v changed", nd.key)
			}
		}
	}
}

func TestRandomizedAgainstBuiltinMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := New(0)
	ref := map[int]int{}

	for i := 0; i < 5000; i++ {
		k := rng.Intn(500)
		switch rng.Intn(3) {
		case 0, 1:
			m.Set(&IntFuncs, k, i)
			ref[k] = i
		case 2:
			_, had := ref[k]
			if got := m.Remove(&IntFuncs, k); got != had {
				t.Fatalf("Remove(%d) = %v, want %v", k, got, had)
			}
			delete(ref, k)
		}
		if m.Len() != len(ref) {
			t.Fatalf("step %d: Len = %d, want %d", i, m.Len(), len(ref))
		}
	}

	for k, want := range ref {
		if v, ok := m.Get(&IntFuncs, k); !ok || v != want {
			t.Errorf("Get(%d) = %v, %v; want %d", k, v, ok, want)
		}
	}

	seen := map[int]bool{}
	m.Foreach(func(key, value any) int {
		k := key.(int)
		if seen[k] {
			t.Errorf("key %d visited twice", k)
		}
		seen[k] = true
		return 0
	})
	if len(seen) != len(ref) {
		t.Errorf("Foreach visited %d keys, want %d", len(seen), len(ref))
	}
}

func TestForeachEarlyExit(t *testing.T) {
	m := New(8)
	for i := 0; i < 10; i++ {
		m.Set(&IntFuncs, i, i)
	}
	calls := 0
	ret := m.Foreach(func(key, value any) int {
		calls++
		if calls == 3 {
			return 42
		}
		return 0
	})
	if ret != 42 || calls != 3 {
		t.Errorf("Foreach returned %d after %d calls, want 42 after 3", ret, calls)
	}
}

func TestClearShrinkExtend(t *testing.T) {
	a := New(4)
	b := New(4)
	for i := 0; i < 20; i++ {
		a.Set(&StringFuncs, fmt.Sprintf("a%d", i), i)
	}
	b.Set(&StringFuncs, "a0", -1)
	b.Set(&StringFuncs, "b0", -2)

	a.Extend(&StringFuncs, b)
	if a.Len() != 21 {
		t.Errorf("Len after Extend = %d, want 21", a.Len())
	}
	if v, _ := a.Get(&StringFuncs, "a0"); v != -1 {
		t.Errorf("Extend should overwrite existing keys, got %v", v)
	}

	a.Clear()
	if a.Len() != 0 {
		t.Errorf("Len after Clear = %d", a.Len())
	}
	if _, ok := a.Get(&StringFuncs, "a1"); ok {
		t.Error("Clear should remove all entries")
	}

	a.Set(&StringFuncs, "x", 1)
	a.Shrink()
	if a.BucketCount() != 1 {
		t.Errorf("BucketCount after Shrink = %d, want 1", a.BucketCount())
	}
	if v, ok := a.Get(&StringFuncs, "x"); !ok || v != 1 {
		t.Errorf("Get(x) after Shrink = %v, %v", v, ok)
	}
}
