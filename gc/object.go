// Package gc implements the runtime's object memory: managed-object headers,
// the GC root registry, weak-reference tracking, and a generational
// mark-sweep heap that drives them.
package gc

import "errors"

// ErrOutOfMemory is returned by Heap.Allocate when the heap limit is reached
// even after a full collection.
var ErrOutOfMemory = errors.New("out of memory")

// VisitOp tells a visitor which traversal phase is running.
type VisitOp int

const (
	// VisitMark marks every reachable object recursively.
	VisitMark VisitOp = iota
	// VisitMarkYoung marks reachable young objects recursively; old objects
	// are assumed alive and not traversed.
	VisitMarkYoung
)

func (op VisitOp) String() string {
	switch op {
	case VisitMark:
		return "mark"
	case VisitMarkYoung:
		return "mark-young"
	default:
		return "unknown"
	}
}

// GCType selects a collection strategy.
type GCType int

const (
	// GCNone means no collection ran (or none is running).
	GCNone GCType = iota - 1
	// GCAuto lets the heap decide.
	GCAuto
	// GCFast collects young objects only.
	GCFast
	// GCFull collects the whole heap.
	GCFull
)

func (t GCType) String() string {
	switch t {
	case GCNone:
		return "none"
	case GCAuto:
		return "auto"
	case GCFast:
		return "fast"
	case GCFull:
		return "full"
	default:
		return "unknown"
	}
}

// Header is the collector's per-object bookkeeping. Managed types embed it.
type Header struct {
	size       int
	live       bool
	marked     bool
	old        bool
	remembered bool
}

// GCHeader returns hd. Embedding Header gives a type this method.
func (hd *Header) GCHeader() *Header { return hd }

// Object is a managed heap value.
//
// GCHeader returns nil for unboxed values (small integers and the like),
// which the collector ignores. VisitFields must call Heap.Visit for every
// managed reference held by the object, passing op through unchanged.
type Object interface {
	GCHeader() *Header
	VisitFields(h *Heap, op VisitOp)
}

// Finalizer is implemented by objects that release resources when swept.
type Finalizer interface {
	Finalize()
}
