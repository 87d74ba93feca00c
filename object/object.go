// Package object defines the small set of managed value types the memory
// substrate is exercised with: unboxed integers, tuples, strings and modules.
package object

import (
	"fmt"
	"strconv"
	"unsafe"

	"github.com/chazu/owiz/gc"
)

// ---------------------------------------------------------------------------
// Int: unboxed small integer
// ---------------------------------------------------------------------------

// Int is an unboxed integer. It is never allocated on the heap and the
// collector skips it.
type Int int64

// GCHeader returns nil: Int carries no header.
func (Int) GCHeader() *gc.Header { return nil }

// VisitFields does nothing; Int has no references.
func (Int) VisitFields(*gc.Heap, gc.VisitOp) {}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// ---------------------------------------------------------------------------
// Tuple: fixed-size array of references
// ---------------------------------------------------------------------------

var (
	tupleSize = int(unsafe.Sizeof(Tuple{}))
	slotSize  = int(unsafe.Sizeof(gc.Object(nil)))
)

// Tuple is a fixed-length sequence of object references.
type Tuple struct {
	gc.Header
	elems []gc.Object
}

// NewTuple allocates a tuple of n nil elements on h.
func NewTuple(h *gc.Heap, n int) (*Tuple, error) {
	t := &Tuple{elems: make([]gc.Object, n)}
	if err := h.Allocate(t, tupleSize+n*slotSize); err != nil {
		return nil, fmt.Errorf("object: new tuple of %d: %w", n, err)
	}
	return t, nil
}

// Len returns the number of elements.
func (t *Tuple) Len() int { return len(t.elems) }

// At returns element i.
func (t *Tuple) At(i int) gc.Object { return t.elems[i] }

// Set stores v at index i, recording the store with h's write barrier.
func (t *Tuple) Set(h *gc.Heap, i int, v gc.Object) {
	t.elems[i] = v
	h.WriteBarrier(t, v)
}

func (t *Tuple) VisitFields(h *gc.Heap, op gc.VisitOp) {
	for _, e := range t.elems {
		h.Visit(e, op)
	}
}
