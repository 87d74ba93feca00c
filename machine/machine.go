// Package machine ties the memory substrate together into one runtime
// instance: an object heap, the call stack that roots it, interned symbols,
// global bindings and the module registry.
package machine

import (
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/owiz/config"
	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/logging"
)

// Machine is a single runtime instance. It is driven by one goroutine at a
// time; separate machines share nothing but logging.
type Machine struct {
	ID      uuid.UUID
	Config  config.Config
	Heap    *gc.Heap
	Stack   *CallStack
	Symbols *SymbolPool
	Globals *Globals
	Modules *ModuleManager

	log commonlog.Logger
}

// New creates a machine from cfg. Module paths that do not exist are
// skipped with a warning.
func New(cfg config.Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	m := &Machine{
		ID:     id,
		Config: cfg,
		log:    commonlog.NewKeyValueLogger(logging.Get(logging.Machine), "machine", id.String()),
	}
	m.Heap = gc.NewHeap(gc.Options{
		Threshold:   cfg.Memory.GCThreshold,
		AllocateMax: cfg.Memory.AllocateMax,
		Verbose:     cfg.Memory.Verbose,
		Logger:      commonlog.NewKeyValueLogger(logging.Get(logging.GC), "machine", id.String()),
	})
	m.Stack = NewCallStack(m.Heap, cfg.Stack.Size)
	m.Symbols = NewSymbolPool()
	m.Globals = NewGlobals(m.Heap)
	m.Modules = newModuleManager(m)

	for _, p := range cfg.ModulePaths() {
		if err := m.Modules.AddPath(p); err != nil {
			m.log.Warningf("skipping module path: %s", err)
		}
	}

	m.log.Infof("machine started: stack %d slots, gc threshold %d B, heap limit %d B",
		m.Stack.Cap(), cfg.Memory.GCThreshold, cfg.Memory.AllocateMax)
	return m, nil
}

// GC runs a collection: an automatic one (fast unless a full one is due) or,
// with full set, a forced full collection. It returns the type that ran.
func (m *Machine) GC(full bool) gc.GCType {
	t := gc.GCAuto
	if full {
		t = gc.GCFull
	}
	return m.Heap.Collect(t)
}

// Close tears the machine down in reverse order of construction.
func (m *Machine) Close() {
	m.Modules.Close()
	m.Globals.Close()
	m.Stack.Close()
	m.Symbols.Close()
	st := m.Heap.Stats()
	m.Heap.Close()
	m.log.Infof("machine stopped after %d collections, %d B allocated in total",
		st.Collections, st.TotalAllocated)
}
