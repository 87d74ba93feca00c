package object

import (
	"fmt"
	"unsafe"

	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/hashmap"
	"github.com/chazu/owiz/str"
)

var moduleSize = int(unsafe.Sizeof(Module{}))

// Module is a named collection of global bindings.
type Module struct {
	gc.Header
	name    *str.Shared
	path    string
	globals hashmap.Map // *str.Shared -> gc.Object
}

// NewModule allocates an empty module. The module takes its own reference
// to name.
func NewModule(h *gc.Heap, name *str.Shared, path string) (*Module, error) {
	m := &Module{name: name.Ref(), path: path}
	if err := h.Allocate(m, moduleSize); err != nil {
		name.Unref()
		return nil, fmt.Errorf("object: new module %q: %w", name.String(), err)
	}
	return m, nil
}

// Name returns the module name without taking a reference.
func (m *Module) Name() *str.Shared { return m.name }

// Path returns the file the module was loaded from, or "" for modules
// created at run time.
func (m *Module) Path() string { return m.path }

// SetGlobal binds name to v.
func (m *Module) SetGlobal(h *gc.Heap, name string, v gc.Object) {
	key := str.NewSharedString(name)
	_, rebind := m.globals.Get(&str.SharedFuncs, key)
	m.globals.Set(&str.SharedFuncs, key, v)
	if rebind {
		// the map keeps the key it already stored
		key.Unref()
	}
	h.WriteBarrier(m, v)
}

// Global returns the value bound to name.
func (m *Module) Global(name string) (gc.Object, bool) {
	key := str.NewSharedString(name)
	defer key.Unref()
	v, ok := m.globals.Get(&str.SharedFuncs, key)
	if !ok {
		return nil, false
	}
	obj, _ := v.(gc.Object)
	return obj, true
}

// GlobalCount returns the number of bindings.
func (m *Module) GlobalCount() int { return m.globals.Len() }

// EachGlobal calls fn for every binding until fn returns a non-zero value,
// which is returned.
func (m *Module) EachGlobal(fn func(name string, v gc.Object) int) int {
	return m.globals.Foreach(func(k, v any) int {
		obj, _ := v.(gc.Object)
		return fn(k.(*str.Shared).String(), obj)
	})
}

func (m *Module) VisitFields(h *gc.Heap, op gc.VisitOp) {
	m.globals.Foreach(func(_, v any) int {
		if obj, ok := v.(gc.Object); ok {
			h.Visit(obj, op)
		}
		return 0
	})
}

// Finalize releases the module's names.
func (m *Module) Finalize() {
	m.globals.Foreach(func(k, _ any) int {
		k.(*str.Shared).Unref()
		return 0
	})
	m.globals.Fini()
	if m.name != nil {
		m.name.Unref()
		m.name = nil
	}
}
