package gc

import (
	"container/list"
	"fmt"
)

// VisitFunc visits every managed reference reachable from a root's owner.
type VisitFunc func(h *Heap, op VisitOp)

// WeakVisitFunc is called after marking for each registered weak-reference
// container. It should drop every referent for which Heap.Alive is false.
type WeakVisitFunc func(h *Heap)

type setEntry[F any] struct {
	owner any
	fn    F
}

// ownerSet is an insertion-ordered set of owners, each with a callback.
// Removing an entry never disturbs the others.
type ownerSet[F any] struct {
	entries list.List
	index   map[any]*list.Element
}

func (s *ownerSet[F]) add(owner any, fn F) bool {
	if s.index == nil {
		s.index = make(map[any]*list.Element)
	}
	if _, ok := s.index[owner]; ok {
		return false
	}
	s.index[owner] = s.entries.PushBack(&setEntry[F]{owner: owner, fn: fn})
	return true
}

func (s *ownerSet[F]) remove(owner any) bool {
	e, ok := s.index[owner]
	if !ok {
		return false
	}
	delete(s.index, owner)
	s.entries.Remove(e)
	return true
}

func (s *ownerSet[F]) has(owner any) bool {
	_, ok := s.index[owner]
	return ok
}

func (s *ownerSet[F]) len() int {
	return len(s.index)
}

// each calls fn once for every entry registered when the walk starts. fn may
// add or remove entries; a removed entry is skipped if it has not been
// visited yet, and an added one waits for the next walk.
func (s *ownerSet[F]) each(fn func(owner any, f F)) {
	elems := make([]*list.Element, 0, s.entries.Len())
	for e := s.entries.Front(); e != nil; e = e.Next() {
		elems = append(elems, e)
	}
	for _, e := range elems {
		ent := e.Value.(*setEntry[F])
		if s.index[ent.owner] != e {
			continue
		}
		fn(ent.owner, ent.fn)
	}
}

// ---------------------------------------------------------------------------
// Root registration
// ---------------------------------------------------------------------------

// AddRoot registers fn as the visitor for owner. Every collection calls fn
// exactly once. The owner must be comparable; registering the same owner
// twice panics.
func (h *Heap) AddRoot(owner any, fn VisitFunc) {
	if fn == nil {
		panic("gc: nil root visitor")
	}
	if !h.roots.add(owner, fn) {
		panic(fmt.Sprintf("gc: root %p registered twice", owner))
	}
}

// AddObjectRoot registers obj as a root of itself.
func (h *Heap) AddObjectRoot(obj Object) {
	h.AddRoot(obj, func(h *Heap, op VisitOp) {
		h.Visit(obj, op)
	})
}

// RemoveRoot unregisters owner. Removing an owner that is not registered
// panics: it means a root was released twice or never added.
func (h *Heap) RemoveRoot(owner any) {
	if !h.roots.remove(owner) {
		panic(fmt.Sprintf("gc: root %p is not registered", owner))
	}
}

// HasRoot reports whether owner is registered.
func (h *Heap) HasRoot(owner any) bool {
	return h.roots.has(owner)
}

// RootCount returns the number of registered roots.
func (h *Heap) RootCount() int {
	return h.roots.len()
}

// RegisterWeakRef registers a weak-reference container.
func (h *Heap) RegisterWeakRef(container any, fn WeakVisitFunc) {
	if fn == nil {
		panic("gc: nil weak-reference visitor")
	}
	if !h.weakRefs.add(container, fn) {
		panic(fmt.Sprintf("gc: weak-reference container %p registered twice", container))
	}
}

// RemoveWeakRef unregisters a weak-reference container and reports whether
// it was registered.
func (h *Heap) RemoveWeakRef(container any) bool {
	return h.weakRefs.remove(container)
}
