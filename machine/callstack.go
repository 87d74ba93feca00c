package machine

import (
	"errors"
	"fmt"

	"github.com/chazu/owiz/gc"
)

// StackMinSize is the smallest call stack ever allocated.
const StackMinSize = 64

// ErrStackOverflow is returned by CallStack.Check when a push would not fit.
var ErrStackOverflow = errors.New("stack overflow")

// CallStack holds the interpreter's operand slots and frame records. It is
// a GC root for as long as it is open: every collection visits the slots
// from the bottom up to and including SP.
//
// Push, Pop, Top and the slot accessors perform no bounds checks of their
// own. The interpreter keeps within capacity by static depth analysis or by
// calling Check first.
type CallStack struct {
	heap   *gc.Heap
	data   []gc.Object
	sp     int // index of the top slot; -1 when empty
	fp     int
	frames frameArena
	closed bool
}

// NewCallStack creates a stack with room for max(hint, StackMinSize) slots
// and registers it as a root of h.
func NewCallStack(h *gc.Heap, hint int) *CallStack {
	if hint < StackMinSize {
		hint = StackMinSize
	}
	cs := &CallStack{
		heap:   h,
		data:   make([]gc.Object, hint),
		sp:     -1,
		frames: newFrameArena(),
	}
	h.AddRoot(cs, cs.visit)
	return cs
}

func (cs *CallStack) visit(h *gc.Heap, op gc.VisitOp) {
	for _, obj := range cs.data[:cs.sp+1] {
		h.Visit(obj, op)
	}
}

// Close unregisters the stack from the heap and drops its slots and frame
// records. Closing twice panics.
func (cs *CallStack) Close() {
	if cs.closed {
		panic("call stack closed twice")
	}
	cs.heap.RemoveRoot(cs)
	cs.frames.reset()
	cs.data = nil
	cs.sp, cs.fp = -1, 0
	cs.closed = true
}

// Clear empties the stack without releasing memory. Frames still entered are
// returned to the free list.
func (cs *CallStack) Clear() {
	cs.sp = -1
	cs.fp = 0
	cs.frames.leaveAll()
}

// ---------------------------------------------------------------------------
// Slots
// ---------------------------------------------------------------------------

// Push puts v on top of the stack.
func (cs *CallStack) Push(v gc.Object) {
	cs.sp++
	cs.data[cs.sp] = v
}

// Pop removes and returns the top value.
func (cs *CallStack) Pop() gc.Object {
	v := cs.data[cs.sp]
	cs.sp--
	return v
}

// Top returns the top value without removing it.
func (cs *CallStack) Top() gc.Object {
	return cs.data[cs.sp]
}

// Drop discards the top n values.
func (cs *CallStack) Drop(n int) {
	if n > cs.sp+1 {
		panic("stack underflow")
	}
	cs.sp -= n
}

// Check reports ErrStackOverflow if n more values would not fit.
func (cs *CallStack) Check(n int) error {
	if cs.sp+n >= len(cs.data) {
		return fmt.Errorf("%w: %d slots in use, %d requested, capacity %d",
			ErrStackOverflow, cs.sp+1, n, len(cs.data))
	}
	return nil
}

// SP returns the index of the top slot, or -1 when the stack is empty.
func (cs *CallStack) SP() int { return cs.sp }

// SetSP moves the stack pointer, as when a returning frame discards its
// temporaries. Slots above the new pointer are no longer roots.
func (cs *CallStack) SetSP(sp int) { cs.sp = sp }

// FP returns the base index of the current frame.
func (cs *CallStack) FP() int { return cs.fp }

// SetFP sets the base index of the current frame.
func (cs *CallStack) SetFP(fp int) { cs.fp = fp }

// At returns slot i.
func (cs *CallStack) At(i int) gc.Object { return cs.data[i] }

// Set overwrites slot i.
func (cs *CallStack) Set(i int, v gc.Object) { cs.data[i] = v }

// Len returns the number of live slots.
func (cs *CallStack) Len() int { return cs.sp + 1 }

// Cap returns the fixed slot capacity.
func (cs *CallStack) Cap() int { return len(cs.data) }

// ---------------------------------------------------------------------------
// Frames
// ---------------------------------------------------------------------------

// EnterFrame makes a new current frame and returns its record. The caller
// must fill in every field before relying on them.
func (cs *CallStack) EnterFrame() *FrameInfo {
	return cs.frames.enter()
}

// LeaveFrame returns the current frame's record to the free list. It panics
// if no frame is entered.
func (cs *CallStack) LeaveFrame() {
	cs.frames.leave()
}

// CurrentFrame returns the newest frame, or nil if none is entered.
func (cs *CallStack) CurrentFrame() *FrameInfo {
	return cs.frames.current()
}

// Depth returns the number of entered frames.
func (cs *CallStack) Depth() int {
	return cs.frames.depth
}

// Frames calls fn for each entered frame, newest first, until fn returns
// false.
func (cs *CallStack) Frames(fn func(depth int, f *FrameInfo) bool) {
	cs.frames.walk(fn)
}

// FrameAllocations returns how many frame records have been allocated, as
// opposed to reused from the free list.
func (cs *CallStack) FrameAllocations() int {
	return cs.frames.allocs
}
