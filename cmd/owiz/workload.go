package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/machine"
	"github.com/chazu/owiz/object"
)

const (
	argCount    = 3
	globalSlots = 16
)

var selectors = []string{"at:", "at:put:", "size", "printString", "value", "do:", "inject:into:", "+"}

// workload drives a machine the way a bytecode interpreter would: nested
// calls that push arguments, allocate results and occasionally publish them
// as globals.
type workload struct {
	m         *machine.Machine
	depth     int
	rng       *rand.Rand
	globals   []string
	calls     int
	maxDepth  int
	overflows int
}

func newWorkload(m *machine.Machine, depth int) *workload {
	if depth < 1 {
		depth = 1
	}
	w := &workload{
		m:     m,
		depth: depth,
		rng:   rand.New(rand.NewPCG(0x5d9ee90, uint64(depth))),
	}
	for i := 0; i < globalSlots; i++ {
		w.globals = append(w.globals, fmt.Sprintf("g%d", i))
	}
	return w
}

// Run simulates n top-level calls. The stack is empty afterwards.
func (w *workload) Run(n int) error {
	for i := 0; i < n; i++ {
		if err := w.call(i, 1+w.rng.IntN(w.depth)); err != nil {
			w.m.Stack.Clear()
			return fmt.Errorf("call %d: %w", i, err)
		}
	}
	return nil
}

func (w *workload) call(ip, remaining int) error {
	cs := w.m.Stack
	h := w.m.Heap
	if err := cs.Check(argCount + 1); err != nil {
		w.overflows++
		return nil
	}

	base := cs.SP() + 1
	prevFP := cs.FP()
	noResult := remaining%3 == 0
	f := cs.EnterFrame()
	f.NoReturnValue = noResult
	f.ArgList = base
	f.PrevFP = prevFP
	f.PrevIP = ip

	for a := 0; a < argCount; a++ {
		v, err := w.value(ip + a)
		if err != nil {
			return err
		}
		cs.Push(v)
	}
	cs.SetFP(base)
	w.calls++
	if d := cs.Depth(); d > w.maxDepth {
		w.maxDepth = d
	}

	if remaining > 1 {
		if err := w.call(ip+1, remaining-1); err != nil {
			return err
		}
	}

	result, err := object.NewTuple(h, argCount)
	if err != nil {
		return err
	}
	for a := 0; a < argCount; a++ {
		result.Set(h, a, cs.At(base+a))
	}
	if ip%64 == 0 {
		w.m.Globals.Set(w.globals[(ip/64)%globalSlots], result)
	}

	cs.SetSP(base - 1)
	cs.SetFP(prevFP)
	cs.LeaveFrame()
	if !noResult {
		// the caller consumes the result immediately
		cs.Push(result)
		cs.Drop(1)
	}
	return nil
}

func (w *workload) value(k int) (gc.Object, error) {
	switch k % 3 {
	case 0:
		return object.Int(k), nil
	case 1:
		sym := w.m.Symbols.Intern(selectors[k%len(selectors)])
		return object.NewStringShared(w.m.Heap, sym.Ref())
	default:
		return object.NewTuple(w.m.Heap, 1+k%4)
	}
}
