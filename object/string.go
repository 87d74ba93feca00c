package object

import (
	"fmt"
	"unsafe"

	"github.com/chazu/owiz/gc"
	"github.com/chazu/owiz/str"
)

var stringSize = int(unsafe.Sizeof(String{}))

// String is a managed, immutable string. It holds one reference to its
// shared storage and drops it when finalized.
type String struct {
	gc.Header
	s *str.Shared
}

// NewString allocates a string holding a copy of s.
func NewString(h *gc.Heap, s string) (*String, error) {
	return NewStringShared(h, str.NewSharedString(s))
}

// NewStringShared allocates a string that takes over one reference to ss.
// The reference is released if allocation fails.
func NewStringShared(h *gc.Heap, ss *str.Shared) (*String, error) {
	o := &String{s: ss}
	if err := h.Allocate(o, stringSize+ss.Len()+1); err != nil {
		ss.Unref()
		return nil, fmt.Errorf("object: new string: %w", err)
	}
	return o, nil
}

// Shared returns the underlying shared string without taking a reference.
func (o *String) Shared() *str.Shared { return o.s }

func (o *String) Len() int       { return o.s.Len() }
func (o *String) String() string { return o.s.String() }

func (o *String) VisitFields(*gc.Heap, gc.VisitOp) {}

// Finalize releases the shared storage.
func (o *String) Finalize() {
	if o.s != nil {
		o.s.Unref()
		o.s = nil
	}
}
