package machine

// FrameInfo is the caller linkage saved on a call.
type FrameInfo struct {
	NoReturnValue bool // discard the callee's result
	ArgList       int  // slot index of the first argument
	PrevFP        int
	PrevIP        int
}

type frameNode struct {
	FrameInfo
	older int // index of the next older frame, -1 for none
}

// frameArena owns every frame record a call stack ever creates. Records are
// addressed by index and recycled through a stack of free indices, so a
// record handed out by enter stays valid until the arena is reset.
type frameArena struct {
	nodes  []*frameNode
	free   []int
	head   int // newest entered frame, -1 for none
	depth  int
	allocs int
}

func newFrameArena() frameArena {
	return frameArena{head: -1}
}

func (a *frameArena) enter() *FrameInfo {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = len(a.nodes)
		a.nodes = append(a.nodes, &frameNode{})
		a.allocs++
	}
	nd := a.nodes[idx]
	nd.older = a.head
	a.head = idx
	a.depth++
	return &nd.FrameInfo
}

func (a *frameArena) leave() {
	if a.head < 0 {
		panic("leave frame: no current frame")
	}
	idx := a.head
	a.head = a.nodes[idx].older
	a.free = append(a.free, idx)
	a.depth--
}

func (a *frameArena) leaveAll() {
	for a.head >= 0 {
		a.leave()
	}
}

func (a *frameArena) current() *FrameInfo {
	if a.head < 0 {
		return nil
	}
	return &a.nodes[a.head].FrameInfo
}

func (a *frameArena) walk(fn func(depth int, f *FrameInfo) bool) {
	d := a.depth - 1
	for idx := a.head; idx >= 0; idx = a.nodes[idx].older {
		if !fn(d, &a.nodes[idx].FrameInfo) {
			return
		}
		d--
	}
}

func (a *frameArena) reset() {
	a.nodes = nil
	a.free = nil
	a.head = -1
	a.depth = 0
}
