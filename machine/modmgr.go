package machine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/owiz/array"
	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/hashmap"
	"github.com/chazu/owiz/logging"
	"github.com/chazu/owiz/object"
	"github.com/chazu/owiz/str"
)

// LoadFlags modify ModuleManager.Load.
type LoadFlags uint8

const (
	// Reload loads the module again even if it is already registered.
	Reload LoadFlags = 1 << iota
	// NoCache leaves a freshly loaded module unregistered. The caller must
	// root it before the next allocation.
	NoCache
)

// ErrModuleNotFound is returned when no loader can produce a module.
var ErrModuleNotFound = errors.New("module not found")

// Loader produces modules by name. Implementations create the module with
// ModuleManager.NewModule so it stays reachable while it is being filled.
type Loader interface {
	LoadModule(m *Machine, name string, paths []string) (*object.Module, error)
}

// ---------------------------------------------------------------------------
// ModuleManager
// ---------------------------------------------------------------------------

// ModuleManager registers loaded modules by name and holds the module search
// path. It is a GC root for the registered modules and for every module still
// under construction, including those of enclosing loads.
type ModuleManager struct {
	machine *Machine
	modules hashmap.Map // *str.Shared -> *object.Module
	paths   array.Array[string]
	temp    array.Array[*object.Module]
	loader  Loader
	log     commonlog.Logger
}

func newModuleManager(m *Machine) *ModuleManager {
	mm := &ModuleManager{
		machine: m,
		log:     commonlog.NewKeyValueLogger(logging.Get(logging.Modules), "machine", m.ID.String()),
	}
	mm.paths.Init(4)
	mm.temp.Init(4)
	m.Heap.AddRoot(mm, mm.visit)
	return mm
}

func (mm *ModuleManager) visit(h *gc.Heap, op gc.VisitOp) {
	mm.modules.Foreach(func(_, v any) int {
		h.Visit(v.(*object.Module), op)
		return 0
	})
	for _, mod := range mm.temp.Data() {
		h.Visit(mod, op)
	}
}

// SetLoader installs the loader used by Load.
func (mm *ModuleManager) SetLoader(l Loader) {
	mm.loader = l
}

// AddPath appends dir to the search path. The directory must exist; it is
// stored as an absolute path and added only once.
func (mm *ModuleManager) AddPath(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve module path %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("module path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("module path %s is not a directory", abs)
	}
	for _, p := range mm.paths.Data() {
		if p == abs {
			return nil
		}
	}
	mm.paths.Append(abs)
	mm.log.Debugf("module path added: %s", abs)
	return nil
}

// Paths returns a copy of the search path.
func (mm *ModuleManager) Paths() []string {
	return append([]string(nil), mm.paths.Data()...)
}

// Register binds mod under its name, replacing any previous module of that
// name. The table key is always the registered module's own name.
func (mm *ModuleManager) Register(mod *object.Module) {
	mm.Unregister(mod.Name().String())
	mm.modules.Set(&str.SharedFuncs, mod.Name().Ref(), mod)
}

// Unregister removes the module bound to name and reports whether one was
// bound.
func (mm *ModuleManager) Unregister(name string) bool {
	old, ok := mm.Lookup(name)
	if !ok {
		return false
	}
	mm.modules.Remove(&str.SharedFuncs, old.Name())
	old.Name().Unref()
	return true
}

// Lookup returns the registered module called name.
func (mm *ModuleManager) Lookup(name string) (*object.Module, bool) {
	key := str.NewSharedString(name)
	defer key.Unref()
	v, ok := mm.modules.Get(&str.SharedFuncs, key)
	if !ok {
		return nil, false
	}
	return v.(*object.Module), true
}

// Len returns the number of registered modules.
func (mm *ModuleManager) Len() int {
	return mm.modules.Len()
}

// NewModule allocates an empty module and keeps it reachable until the
// innermost Load in progress returns. Loads may nest.
func (mm *ModuleManager) NewModule(name, path string) (*object.Module, error) {
	mod, err := object.NewModule(mm.machine.Heap, mm.machine.Symbols.Intern(name), path)
	if err != nil {
		return nil, err
	}
	mm.temp.Append(mod)
	return mod, nil
}

// Load returns the module called name, asking the loader for it unless it
// is already registered and Reload is not set.
func (mm *ModuleManager) Load(name string, flags LoadFlags) (*object.Module, error) {
	if flags&Reload == 0 {
		if mod, ok := mm.Lookup(name); ok {
			return mod, nil
		}
	}
	if mm.loader == nil {
		return nil, fmt.Errorf("load %s: %w", name, ErrModuleNotFound)
	}

	depth := mm.temp.Len()
	defer func() {
		for mm.temp.Len() > depth {
			mm.temp.Drop()
		}
	}()
	mod, err := mm.loader.LoadModule(mm.machine, name, mm.Paths())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if mod == nil {
		return nil, fmt.Errorf("load %s: %w", name, ErrModuleNotFound)
	}
	if flags&NoCache == 0 {
		mm.Register(mod)
	}
	mm.log.Infof("loaded module %s from %q", name, mod.Path())
	return mod, nil
}

// Close unregisters the manager from the heap and drops every module.
func (mm *ModuleManager) Close() {
	mm.machine.Heap.RemoveRoot(mm)
	mm.modules.Foreach(func(k, _ any) int {
		k.(*str.Shared).Unref()
		return 0
	})
	mm.modules.Fini()
	mm.paths.Fini()
	mm.temp.Fini()
}

// ---------------------------------------------------------------------------
// FileLoader
// ---------------------------------------------------------------------------

// FileLoader resolves a module name to name+Ext in the first search path
// that contains it. Init, if set, fills the new module from the file.
type FileLoader struct {
	Ext  string
	Init func(m *Machine, mod *object.Module, file string) error
}

func (fl FileLoader) LoadModule(m *Machine, name string, paths []string) (*object.Module, error) {
	for _, dir := range paths {
		file := filepath.Join(dir, name+fl.Ext)
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		mod, err := m.Modules.NewModule(name, file)
		if err != nil {
			return nil, err
		}
		if fl.Init != nil {
			if err := fl.Init(m, mod, file); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
		return mod, nil
	}
	return nil, ErrModuleNotFound
}
