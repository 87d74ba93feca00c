// Package hashmap implements a chained hash map with untyped keys and values.
//
// The map knows nothing about its keys: equality and hashing come from a Funcs
// table supplied on every call, so one implementation backs symbol tables,
// globals and the module registry alike.
package hashmap

import "github.com/chazu/owiz/hash"

// minGrowBuckets is the bucket count an empty table grows to on first insert.
const minGrowBuckets = 8

// Funcs supplies key equality and hashing to a Map.
type Funcs struct {
	// KeyEqual reports whether a new key equals a stored key.
	KeyEqual func(ctx, newKey, storedKey any) bool
	// KeyHash hashes a key.
	KeyHash func(ctx, key any) hash.Hash
	// Context is passed through to both functions.
	Context any
}

func (f *Funcs) equal(a, b any) bool {
	return f.KeyEqual(f.Context, a, b)
}

func (f *Funcs) hash(k any) hash.Hash {
	return f.KeyHash(f.Context, k)
}

// Walker is called for each entry by Foreach. A non-zero return stops the walk
// and is returned from Foreach.
type Walker func(key, value any) int

type node struct {
	next  *node
	hash  hash.Hash // computed once at insertion
	key   any
	value any
}

// Map is a separate-chaining hash map. The zero Map is a valid empty map with
// no buckets.
type Map struct {
	size    int
	buckets []*node
}

// New creates a map with n buckets.
func New(n int) *Map {
	m := &Map{}
	m.Init(n)
	return m
}

// Init (re)initializes the map with n empty buckets.
func (m *Map) Init(n int) {
	m.size = 0
	m.buckets = make([]*node, n)
}

// Fini drops every entry and the bucket array.
func (m *Map) Fini() {
	m.Clear()
	m.buckets = nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return m.size
}

// BucketCount returns the number of buckets.
func (m *Map) BucketCount() int {
	return len(m.buckets)
}

// Reserve grows the bucket array to n buckets. It never shrinks.
func (m *Map) Reserve(n int) {
	if n <= len(m.buckets) {
		return
	}
	m.rehash(n)
}

// Shrink reduces the bucket array to fit the current number of entries.
func (m *Map) Shrink() {
	n := m.size
	if n < 1 {
		n = 1
	}
	if n >= len(m.buckets) {
		return
	}
	m.rehash(n)
}

// rehash relinks every node into a new bucket array of n buckets. Nodes keep
// their identity and cached hash; only links change.
func (m *Map) rehash(n int) {
	buckets := make([]*node, n)
	for _, head := range m.buckets {
		for nd := head; nd != nil; {
			next := nd.next
			nd.next = nil
			link := &buckets[nd.hash%uint32(n)]
			for *link != nil {
				link = &(*link).next
			}
			*link = nd
			nd = next
		}
	}
	m.buckets = buckets
}

// find returns the link pointing at the node for key, or the tail link of the
// key's chain when absent.
func (m *Map) find(f *Funcs, key any, h hash.Hash) **node {
	link := &m.buckets[h%uint32(len(m.buckets))]
	for *link != nil {
		nd := *link
		if nd.hash == h && f.equal(key, nd.key) {
			return link
		}
		link = &nd.next
	}
	return link
}

// Set inserts key or replaces its value.
func (m *Map) Set(f *Funcs, key, value any) {
	h := f.hash(key)
	if len(m.buckets) > 0 {
		if link := m.find(f, key, h); *link != nil {
			(*link).value = value
			return
		}
	}

	if m.size+1 > len(m.buckets) {
		n := m.size * 2
		if n < minGrowBuckets {
			n = minGrowBuckets
		}
		m.Reserve(n)
	}

	link := &m.buckets[h%uint32(len(m.buckets))]
	for *link != nil {
		link = &(*link).next
	}
	*link = &node{hash: h, key: key, value: value}
	m.size++
}

// Get returns the value stored for key and whether it was present.
func (m *Map) Get(f *Funcs, key any) (any, bool) {
	if len(m.buckets) == 0 {
		return nil, false
	}
	nd := *m.find(f, key, f.hash(key))
	if nd == nil {
		return nil, false
	}
	return nd.value, true
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(f *Funcs, key any) bool {
	if len(m.buckets) == 0 {
		return false
	}
	link := m.find(f, key, f.hash(key))
	nd := *link
	if nd == nil {
		return false
	}
	*link = nd.next
	nd.next = nil
	m.size--
	return true
}

// Clear deletes every entry, keeping the bucket array.
func (m *Map) Clear() {
	if m.size == 0 {
		return
	}
	for i := range m.buckets {
		for nd := m.buckets[i]; nd != nil; {
			next := nd.next
			nd.next, nd.key, nd.value = nil, nil, nil
			nd = next
		}
		m.buckets[i] = nil
	}
	m.size = 0
}

// Extend inserts every entry of other into m.
func (m *Map) Extend(f *Funcs, other *Map) {
	if other.size > len(m.buckets) {
		m.Reserve(m.size + other.size)
	}
	other.Foreach(func(key, value any) int {
		m.Set(f, key, value)
		return 0
	})
}

// Foreach calls w for every entry in bucket order. The walker must not insert
// into or remove from the map.
func (m *Map) Foreach(w Walker) int {
	for _, head := range m.buckets {
		for nd := head; nd != nil; nd = nd.next {
			if ret := w(nd.key, nd.value); ret != 0 {
				return ret
			}
		}
	}
	return 0
}

// IntFuncs is a Funcs table for int keys.
var IntFuncs = Funcs{
	KeyEqual: func(_, a, b any) bool { return a.(int) == b.(int) },
	KeyHash:  func(_, k any) hash.Hash { return hash.Int64(int64(k.(int))) },
}

// StringFuncs is a Funcs table for Go string keys.
var StringFuncs = Funcs{
	KeyEqual: func(_, a, b any) bool { return a.(string) == b.(string) },
	KeyHash:  func(_, k any) hash.Hash { return hash.String(k.(string)) },
}
