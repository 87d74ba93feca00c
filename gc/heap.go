package gc

import (
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/owiz/logging"
)

// Default heap limits, in bytes.
const (
	DefaultThreshold   = 2 * 1024 * 1024
	DefaultAllocateMax = 64 * 1024 * 1024
)

// Options configures a Heap.
type Options struct {
	// Threshold is the allocated size that triggers an automatic collection.
	Threshold int
	// AllocateMax is the hard limit on allocated size.
	AllocateMax int
	// Verbose logs every collection at info level instead of debug.
	Verbose bool
	// Logger receives collection reports. Defaults to the "owiz.gc" logger.
	Logger commonlog.Logger
}

// Heap is a generational mark-sweep object heap.
//
// A Heap belongs to one mutator. Collections run synchronously inside
// Allocate or Collect and stop that mutator for their duration; objects must
// not be allocated from inside a visitor.
type Heap struct {
	roots    ownerSet[VisitFunc]
	weakRefs ownerSet[WeakVisitFunc]

	young      []Object
	old        []Object
	remembered []Object
	gray       []Object

	noGC      int
	current   GCType
	forceFull bool

	threshold   int
	allocateMax int
	allocated   int
	verbose     bool
	log         commonlog.Logger

	stats Stats
}

// NewHeap creates an empty heap.
func NewHeap(opts Options) *Heap {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.AllocateMax <= 0 {
		opts.AllocateMax = DefaultAllocateMax
	}
	if opts.AllocateMax < opts.Threshold {
		opts.AllocateMax = opts.Threshold
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get(logging.GC)
	}
	return &Heap{
		current:     GCNone,
		threshold:   opts.Threshold,
		allocateMax: opts.AllocateMax,
		verbose:     opts.Verbose,
		log:         opts.Logger,
	}
}

// SetVerbose toggles per-collection reports at info level.
func (h *Heap) SetVerbose(v bool) {
	h.verbose = v
}

// Close finalizes every object still on the heap. The heap must not be used
// afterwards.
func (h *Heap) Close() {
	if h.roots.len() > 0 {
		h.log.Warningf("closing heap with %d registered roots", h.roots.len())
	}
	for _, list := range [][]Object{h.young, h.old} {
		for _, obj := range list {
			release(obj)
		}
	}
	h.young, h.old, h.remembered, h.gray = nil, nil, nil, nil
	h.allocated = 0
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// Allocate puts obj under the heap's management, accounting size bytes to it.
// It may run a collection first; that collection does not trace obj, so
// references stored in obj before Allocate returns must be reachable from a
// root. ErrOutOfMemory is returned when the heap limit would be exceeded even
// after a full collection.
func (h *Heap) Allocate(obj Object, size int) error {
	if h.current != GCNone {
		panic("gc: allocation during collection")
	}
	hd := obj.GCHeader()
	if hd == nil {
		panic("gc: cannot allocate an unboxed value")
	}
	if hd.live {
		panic("gc: object allocated twice")
	}

	if h.allocated >= h.threshold {
		h.Collect(GCAuto)
	}
	if h.allocated+size > h.allocateMax {
		h.Collect(GCFull)
		if h.allocated+size > h.allocateMax {
			return ErrOutOfMemory
		}
	}

	*hd = Header{size: size, live: true}
	h.young = append(h.young, obj)
	h.allocated += size
	h.stats.TotalAllocated += uint64(size)
	return nil
}

// WriteBarrier must be called after storing value into a field of owner. It
// records old objects that now reference young ones so that a fast
// collection keeps those referents alive.
func (h *Heap) WriteBarrier(owner, value Object) {
	if value == nil {
		return
	}
	ohd := owner.GCHeader()
	vhd := value.GCHeader()
	if ohd == nil || vhd == nil {
		return
	}
	if ohd.old && !vhd.old && !ohd.remembered {
		ohd.remembered = true
		h.remembered = append(h.remembered, owner)
	}
}

// PushNoGC starts a region in which collections are suppressed. Regions nest.
func (h *Heap) PushNoGC() {
	h.noGC++
}

// PopNoGC ends a region started by PushNoGC.
func (h *Heap) PopNoGC() {
	if h.noGC == 0 {
		panic("gc: PopNoGC without PushNoGC")
	}
	h.noGC--
}

// InNoGC reports whether a no-GC region is active.
func (h *Heap) InNoGC() bool {
	return h.noGC > 0
}

// CurrentGC returns the type of the running collection, or GCNone.
func (h *Heap) CurrentGC() GCType {
	return h.current
}

// ---------------------------------------------------------------------------
// Collection
// ---------------------------------------------------------------------------

// Visit marks obj reachable. Visitors call it for every managed reference
// they hold; visiting an object more than once is harmless.
func (h *Heap) Visit(obj Object, op VisitOp) {
	if obj == nil {
		return
	}
	hd := obj.GCHeader()
	if hd == nil || !hd.live || hd.marked {
		return
	}
	if op == VisitMarkYoung && hd.old {
		return
	}
	hd.marked = true
	h.gray = append(h.gray, obj)
}

// drain traces from every object marked but not yet scanned.
func (h *Heap) drain(op VisitOp) {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray[n] = nil
		h.gray = h.gray[:n]
		obj.VisitFields(h, op)
	}
}

// Alive reports whether obj survives the running collection. It is only
// meaningful inside a weak-reference visitor.
func (h *Heap) Alive(obj Object) bool {
	if obj == nil {
		return false
	}
	hd := obj.GCHeader()
	if hd == nil {
		return true
	}
	if hd.marked {
		return true
	}
	return h.current == GCFast && hd.old
}

// Collect runs a collection of type t and returns the type that actually
// ran. It returns GCNone inside a no-GC region or when a collection is
// already running.
func (h *Heap) Collect(t GCType) GCType {
	if h.noGC > 0 || h.current != GCNone {
		return GCNone
	}
	if h.forceFull {
		h.forceFull = false
		t = GCFull
	} else if t == GCAuto {
		t = GCFast
	}
	if t != GCFast && t != GCFull {
		return GCNone
	}

	start := time.Now()
	h.current = t
	op := VisitMark
	if t == GCFast {
		op = VisitMarkYoung
	}

	h.roots.each(func(_ any, fn VisitFunc) {
		fn(h, op)
		h.drain(op)
	})
	if t == GCFast {
		for _, obj := range h.remembered {
			obj.VisitFields(h, op)
			h.drain(op)
		}
	}
	h.weakRefs.each(func(_ any, fn WeakVisitFunc) {
		fn(h)
	})

	var freed int
	var survivors []Object
	survivors, freed = h.sweep(h.young, survivors, freed)
	if t == GCFull {
		var old []Object
		old, freed = h.sweep(h.old, old, freed)
		h.old = append(old, survivors...)
	} else {
		h.old = append(h.old, survivors...)
	}
	h.young = h.young[:0]
	for _, obj := range h.remembered {
		obj.GCHeader().remembered = false
	}
	h.remembered = h.remembered[:0]

	h.allocated -= freed
	alive := h.allocated
	if t == GCFull {
		h.adjustThreshold(freed, alive)
	} else if alive >= h.threshold {
		h.forceFull = true
	}

	pause := time.Since(start)
	h.current = GCNone
	h.record(t, freed, alive, pause)
	return t
}

// sweep keeps marked objects (promoting them to the old generation) and
// releases the rest.
func (h *Heap) sweep(objs, kept []Object, freed int) ([]Object, int) {
	for i, obj := range objs {
		hd := obj.GCHeader()
		if hd.marked {
			hd.marked = false
			hd.old = true
			kept = append(kept, obj)
		} else {
			freed += hd.size
			release(obj)
		}
		objs[i] = nil
	}
	return kept, freed
}

func release(obj Object) {
	hd := obj.GCHeader()
	hd.live = false
	hd.remembered = false
	if f, ok := obj.(Finalizer); ok {
		f.Finalize()
	}
}

func (h *Heap) adjustThreshold(freed, alive int) {
	switch {
	case freed < alive/4:
		h.threshold = alive + alive/2
	case freed > alive*3:
		th := alive * 2
		if th < DefaultThreshold {
			th = DefaultThreshold
		}
		h.threshold = th
	}
	if h.threshold > h.allocateMax {
		h.threshold = h.allocateMax
	}
}

func (h *Heap) record(t GCType, freed, alive int, pause time.Duration) {
	h.stats.Collections++
	if t == GCFast {
		h.stats.FastCollections++
	} else {
		h.stats.FullCollections++
	}
	h.stats.TotalFreed += uint64(freed)
	h.stats.LastType = t.String()
	h.stats.LastFreed = freed
	h.stats.LastPause = pause

	format := "%s GC: %d B freed, %d B alive, next threshold %d B; %.1f ms"
	ms := float64(pause.Microseconds()) / 1e3
	if h.verbose {
		h.log.Infof(format, t, freed, alive, h.threshold, ms)
	} else {
		h.log.Debugf(format, t, freed, alive, h.threshold, ms)
	}
}

// IsOld reports whether obj has survived a collection.
func IsOld(obj Object) bool {
	hd := obj.GCHeader()
	return hd != nil && hd.old
}

// IsLive reports whether obj is currently managed by a heap.
func IsLive(obj Object) bool {
	hd := obj.GCHeader()
	return hd != nil && hd.live
}
