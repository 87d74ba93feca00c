package machine

import (
	"github.com/chazu/owiz/hashmap"
	"github.com/chazu/owiz/str"
)

// ---------------------------------------------------------------------------
// SymbolPool: interned names
// ---------------------------------------------------------------------------

// SymbolPool interns names as shared strings so that equal names share one
// allocation. The pool holds one reference to every string it contains;
// strings returned by Intern and Lookup are borrowed.
type SymbolPool struct {
	table hashmap.Map // *str.Shared -> *str.Shared
}

// NewSymbolPool creates an empty pool.
func NewSymbolPool() *SymbolPool {
	sp := &SymbolPool{}
	sp.table.Init(64)
	return sp
}

// Intern returns the pooled string equal to name, adding it if needed.
func (sp *SymbolPool) Intern(name string) *str.Shared {
	key := str.NewSharedString(name)
	if v, ok := sp.table.Get(&str.SharedFuncs, key); ok {
		key.Unref()
		return v.(*str.Shared)
	}
	sp.table.Set(&str.SharedFuncs, key, key)
	return key
}

// InternShared is Intern for a string the caller already holds. The pool
// takes its own reference when ss is new.
func (sp *SymbolPool) InternShared(ss *str.Shared) *str.Shared {
	if v, ok := sp.table.Get(&str.SharedFuncs, ss); ok {
		return v.(*str.Shared)
	}
	sp.table.Set(&str.SharedFuncs, ss.Ref(), ss)
	return ss
}

// Lookup returns the pooled string equal to name, if any.
func (sp *SymbolPool) Lookup(name string) (*str.Shared, bool) {
	key := str.NewSharedString(name)
	defer key.Unref()
	v, ok := sp.table.Get(&str.SharedFuncs, key)
	if !ok {
		return nil, false
	}
	return v.(*str.Shared), true
}

// Len returns the number of interned names.
func (sp *SymbolPool) Len() int {
	return sp.table.Len()
}

// Close releases every pooled string.
func (sp *SymbolPool) Close() {
	sp.table.Foreach(func(k, _ any) int {
		k.(*str.Shared).Unref()
		return 0
	})
	sp.table.Fini()
}
