package machine

import (
	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/hashmap"
)

// Globals is the machine's top-level name table. It is a GC root: every
// value bound in it is kept alive.
type Globals struct {
	heap  *gc.Heap
	table hashmap.Map // string -> gc.Object
}

// NewGlobals creates an empty table rooted in h.
func NewGlobals(h *gc.Heap) *Globals {
	g := &Globals{heap: h}
	h.AddRoot(g, g.visit)
	return g
}

func (g *Globals) visit(h *gc.Heap, op gc.VisitOp) {
	g.table.Foreach(func(_, v any) int {
		obj, _ := v.(gc.Object)
		h.Visit(obj, op)
		return 0
	})
}

// Set binds name to v.
func (g *Globals) Set(name string, v gc.Object) {
	g.table.Set(&hashmap.StringFuncs, name, v)
}

// Get returns the value bound to name.
func (g *Globals) Get(name string) (gc.Object, bool) {
	v, ok := g.table.Get(&hashmap.StringFuncs, name)
	if !ok {
		return nil, false
	}
	obj, _ := v.(gc.Object)
	return obj, true
}

// Delete unbinds name and reports whether it was bound.
func (g *Globals) Delete(name string) bool {
	return g.table.Remove(&hashmap.StringFuncs, name)
}

// Len returns the number of bindings.
func (g *Globals) Len() int {
	return g.table.Len()
}

// Foreach calls fn for every binding until fn returns a non-zero value,
// which is returned.
func (g *Globals) Foreach(fn func(name string, v gc.Object) int) int {
	return g.table.Foreach(func(k, v any) int {
		obj, _ := v.(gc.Object)
		return fn(k.(string), obj)
	})
}

// Close unregisters the table from the heap and drops every binding.
func (g *Globals) Close() {
	g.heap.RemoveRoot(g)
	g.table.Fini()
}
