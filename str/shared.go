// Package str provides the runtime's two string representations: immutable,
// reference-counted shared strings used for interning, and single-owner
// growable byte buffers.
package str

import (
	"bytes"
	"sync/atomic"

	"github.com/chazu/owiz/hash"
	"github.com/chazu/owiz/hashmap"
)

// Shared is an immutable, reference-counted string. The count is the only
// part of a Shared that may be touched from several goroutines at once;
// callers must hold a reference across any read of the bytes.
type Shared struct {
	refs atomic.Int32
	data []byte // n bytes plus a NUL terminator; nil once released
}

// NewShared copies b into a new shared string with one reference.
func NewShared(b []byte) *Shared {
	data := make([]byte, len(b)+1)
	copy(data, b)
	ss := &Shared{data: data}
	ss.refs.Store(1)
	return ss
}

// NewSharedString copies s into a new shared string with one reference.
func NewSharedString(s string) *Shared {
	data := make([]byte, len(s)+1)
	copy(data, s)
	ss := &Shared{data: data}
	ss.refs.Store(1)
	return ss
}

// Ref adds a reference and returns ss.
func (ss *Shared) Ref() *Shared {
	ss.refs.Add(1)
	return ss
}

// Unref drops a reference. It reports true when this call dropped the last
// reference and released the string.
func (ss *Shared) Unref() bool {
	n := ss.refs.Add(-1)
	if n < 0 {
		panic("str: unref of released shared string")
	}
	if n == 0 {
		ss.data = nil
		return true
	}
	return false
}

// RefCount returns the current number of references.
func (ss *Shared) RefCount() int {
	return int(ss.refs.Load())
}

func (ss *Shared) live() []byte {
	if ss.refs.Load() <= 0 {
		panic("str: use of released shared string")
	}
	return ss.data
}

// Bytes returns the contents without the terminator. The slice must not be
// modified.
func (ss *Shared) Bytes() []byte {
	d := ss.live()
	return d[:len(d)-1]
}

// CString returns the contents including the NUL terminator.
func (ss *Shared) CString() []byte {
	return ss.live()
}

// Len returns the length in bytes.
func (ss *Shared) Len() int {
	return len(ss.live()) - 1
}

// String returns a copy of the contents.
func (ss *Shared) String() string {
	return string(ss.Bytes())
}

// Equal reports whether two shared strings hold the same bytes.
func Equal(a, b *Shared) bool {
	if a == b {
		return true
	}
	ab, bb := a.Bytes(), b.Bytes()
	return len(ab) == len(bb) && bytes.Equal(ab, bb)
}

// SharedFuncs lets a hashmap.Map use *Shared keys: two keys are equal when
// they hold the same bytes.
var SharedFuncs = hashmap.Funcs{
	KeyEqual: func(_, a, b any) bool {
		return Equal(a.(*Shared), b.(*Shared))
	},
	KeyHash: func(_, k any) hash.Hash {
		return hash.Bytes(k.(*Shared).Bytes())
	},
}

// Dup returns a NUL-terminated copy of s.
func Dup(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
