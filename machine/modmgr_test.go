package machine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/owiz/config"
	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/object"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// countingLoader builds modules that bind one string global. It collects
// garbage mid-load to check that the module under construction stays
// reachable.
type countingLoader struct {
	calls int
	fail  error
}

func (l *countingLoader) LoadModule(m *Machine, name string, paths []string) (*object.Module, error) {
	l.calls++
	if l.fail != nil {
		return nil, l.fail
	}
	mod, err := m.Modules.NewModule(name, "")
	if err != nil {
		return nil, err
	}
	m.GC(true)
	if !gc.IsLive(mod) {
		return nil, errors.New("module under construction was collected")
	}
	s, err := object.NewString(m.Heap, name)
	if err != nil {
		return nil, err
	}
	mod.SetGlobal(m.Heap, "name", s)
	return mod, nil
}

// importingLoader builds modules whose construction loads their imports
// first, collecting garbage after each import.
type importingLoader struct {
	imports map[string][]string
}

func (l importingLoader) LoadModule(m *Machine, name string, paths []string) (*object.Module, error) {
	mod, err := m.Modules.NewModule(name, "")
	if err != nil {
		return nil, err
	}
	for _, dep := range l.imports[name] {
		imported, err := m.Modules.Load(dep, 0)
		if err != nil {
			return nil, err
		}
		m.GC(true)
		if !gc.IsLive(mod) {
			return nil, errors.New(name + " was collected while loading " + dep)
		}
		mod.SetGlobal(m.Heap, dep, imported)
	}
	return mod, nil
}

func TestModuleManagerPaths(t *testing.T) {
	m := newMachine(t)
	dir := t.TempDir()

	if err := m.Modules.AddPath(dir); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	if err := m.Modules.AddPath(filepath.Join(dir, ".")); err != nil {
		t.Fatalf("AddPath: %v", err)
	}
	if paths := m.Modules.Paths(); len(paths) != 1 || !filepath.IsAbs(paths[0]) {
		t.Errorf("Paths = %v, want one absolute path", paths)
	}

	if err := m.Modules.AddPath(filepath.Join(dir, "missing")); err == nil {
		t.Error("AddPath should reject a missing directory")
	}
	file := filepath.Join(dir, "file.ow")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Modules.AddPath(file); err == nil {
		t.Error("AddPath should reject a regular file")
	}
}

func TestModuleManagerLoad(t *testing.T) {
	m := newMachine(t)
	loader := &countingLoader{}
	m.Modules.SetLoader(loader)

	mod, err := m.Modules.Load("util", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	again, err := m.Modules.Load("util", 0)
	if err != nil || again != mod || loader.calls != 1 {
		t.Errorf("second Load should hit the cache (calls = %d)", loader.calls)
	}

	reloaded, err := m.Modules.Load("util", Reload)
	if err != nil {
		t.Fatalf("Load(Reload): %v", err)
	}
	if reloaded == mod || loader.calls != 2 {
		t.Error("Reload should call the loader again")
	}
	if got, _ := m.Modules.Lookup("util"); got != reloaded {
		t.Error("Reload should replace the registered module")
	}
	if m.Modules.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Modules.Len())
	}

	m.GC(true)
	if gc.IsLive(mod) {
		t.Error("replaced module should be collectable")
	}
	if !gc.IsLive(reloaded) {
		t.Error("registered module was collected")
	}
	if v, ok := reloaded.Global("name"); !ok || !gc.IsLive(v) {
		t.Error("registered module's global was collected")
	}
}

func TestModuleManagerNoCache(t *testing.T) {
	m := newMachine(t)
	m.Modules.SetLoader(&countingLoader{})

	mod, err := m.Modules.Load("scratch", NoCache)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m.Modules.Lookup("scratch"); ok {
		t.Error("NoCache module was registered")
	}
	m.GC(true)
	if gc.IsLive(mod) {
		t.Error("unrooted NoCache module should be collectable")
	}
}

func TestModuleManagerLoadErrors(t *testing.T) {
	m := newMachine(t)
	if _, err := m.Modules.Load("x", 0); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Load without loader = %v, want ErrModuleNotFound", err)
	}

	boom := errors.New("syntax error")
	m.Modules.SetLoader(&countingLoader{fail: boom})
	if _, err := m.Modules.Load("x", 0); !errors.Is(err, boom) {
		t.Errorf("Load = %v, want wrapped loader error", err)
	}
}

func TestModuleManagerUnregister(t *testing.T) {
	m := newMachine(t)
	mod, err := object.NewModule(m.Heap, m.Symbols.Intern("m"), "")
	if err != nil {
		t.Fatal(err)
	}
	m.Modules.Register(mod)
	m.Modules.Register(mod)
	if m.Modules.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Modules.Len())
	}
	if !m.Modules.Unregister("m") || m.Modules.Unregister("m") {
		t.Error("Unregister should report presence exactly once")
	}
	if mod.Name().RefCount() != 2 {
		t.Errorf("name RefCount = %d, want pool + module", mod.Name().RefCount())
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greet.ow"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Modules.Paths = []string{filepath.Join(dir, "missing"), dir}
	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	m.Modules.SetLoader(FileLoader{
		Ext: ".ow",
		Init: func(m *Machine, mod *object.Module, file string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			s, err := object.NewString(m.Heap, string(data))
			if err != nil {
				return err
			}
			mod.SetGlobal(m.Heap, "source", s)
			return nil
		},
	})

	mod, err := m.Modules.Load("greet", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mod.Path() != filepath.Join(dir, "greet.ow") {
		t.Errorf("Path = %q", mod.Path())
	}
	if v, ok := mod.Global("source"); !ok || v.(*object.String).String() != "hello" {
		t.Errorf("source global = %v", v)
	}
	if _, err := m.Modules.Load("absent", 0); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("Load(absent) = %v, want ErrModuleNotFound", err)
	}
}

func TestModuleManagerNestedLoad(t *testing.T) {
	m := newMachine(t)
	m.Modules.SetLoader(importingLoader{imports: map[string][]string{
		"outer":  {"middle", "leaf"},
		"middle": {"leaf2"},
	}})

	outer, err := m.Modules.Load("outer", 0)
	if err != nil {
		t.Fatalf("Load(outer): %v", err)
	}
	if outer.Name().String() != "outer" {
		t.Errorf("Name = %q, want outer", outer.Name().String())
	}
	for _, name := range []string{"outer", "middle", "leaf", "leaf2"} {
		if _, ok := m.Modules.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}
	middle, ok := outer.Global("middle")
	if !ok || middle.(*object.Module).Name().String() != "middle" {
		t.Errorf("outer.middle = %v", middle)
	}

	m.GC(true)
	if !gc.IsLive(outer) || !gc.IsLive(middle) {
		t.Error("registered modules collected after nested load")
	}
}
