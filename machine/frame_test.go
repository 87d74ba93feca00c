package machine

import "testing"

func TestFrameReuse(t *testing.T) {
	cs := NewCallStack(newHeap(), 64)
	defer cs.Close()

	first := cs.EnterFrame()
	if cs.FrameAllocations() != 1 {
		t.Fatalf("FrameAllocations = %d, want 1", cs.FrameAllocations())
	}
	cs.LeaveFrame()

	again := cs.EnterFrame()
	if again != first {
		t.Error("EnterFrame should reuse the freed record")
	}
	if cs.FrameAllocations() != 1 {
		t.Errorf("FrameAllocations = %d after reuse, want 1", cs.FrameAllocations())
	}
	cs.LeaveFrame()
}

func TestFramePairsDoNotAllocate(t *testing.T) {
	cs := NewCallStack(newHeap(), 64)
	defer cs.Close()

	const depth = 8
	for round := 0; round < 100; round++ {
		for i := 0; i < depth; i++ {
			f := cs.EnterFrame()
			f.PrevIP = round
			f.PrevFP = i
		}
		for i := 0; i < depth; i++ {
			cs.LeaveFrame()
		}
	}
	if cs.FrameAllocations() != depth {
		t.Errorf("FrameAllocations = %d, want %d", cs.FrameAllocations(), depth)
	}
	cs.EnterFrame()
	if cs.FrameAllocations() != depth {
		t.Error("EnterFrame after matched pairs allocated a record")
	}
}

func TestFrameLinkage(t *testing.T) {
	cs := NewCallStack(newHeap(), 64)
	defer cs.Close()

	if cs.CurrentFrame() != nil || cs.Depth() != 0 {
		t.Fatal("new stack has a current frame")
	}
	for i := 0; i < 3; i++ {
		f := cs.EnterFrame()
		*f = FrameInfo{NoReturnValue: i == 1, ArgList: i * 10, PrevFP: cs.FP(), PrevIP: 100 + i}
		cs.SetFP(i * 10)
	}
	if cs.Depth() != 3 || cs.CurrentFrame().PrevIP != 102 {
		t.Fatalf("Depth=%d current=%+v", cs.Depth(), cs.CurrentFrame())
	}

	var ips []int
	cs.Frames(func(depth int, f *FrameInfo) bool {
		if depth != 2-len(ips) {
			t.Errorf("depth = %d for frame %d", depth, len(ips))
		}
		ips = append(ips, f.PrevIP)
		return true
	})
	if len(ips) != 3 || ips[0] != 102 || ips[2] != 100 {
		t.Errorf("walk order = %v, want newest first", ips)
	}

	var n int
	cs.Frames(func(int, *FrameInfo) bool { n++; return false })
	if n != 1 {
		t.Errorf("walk did not stop early, visited %d", n)
	}

	cs.LeaveFrame()
	if cur := cs.CurrentFrame(); cur == nil || !cur.NoReturnValue || cur.ArgList != 10 {
		t.Errorf("after LeaveFrame current = %+v", cur)
	}
}

func TestLeaveFrameWithoutFramePanics(t *testing.T) {
	cs := NewCallStack(newHeap(), 64)
	defer cs.Close()
	defer func() {
		if recover() == nil {
			t.Error("LeaveFrame with no current frame should panic")
		}
	}()
	cs.LeaveFrame()
}

func TestClearRecyclesFrames(t *testing.T) {
	cs := NewCallStack(newHeap(), 64)
	defer cs.Close()

	for i := 0; i < 4; i++ {
		cs.EnterFrame()
	}
	cs.Clear()
	if cs.Depth() != 0 || cs.CurrentFrame() != nil {
		t.Fatalf("Depth = %d after Clear", cs.Depth())
	}
	for i := 0; i < 4; i++ {
		cs.EnterFrame()
	}
	if cs.FrameAllocations() != 4 {
		t.Errorf("FrameAllocations = %d, frames entered before Clear were not reused", cs.FrameAllocations())
	}
}
