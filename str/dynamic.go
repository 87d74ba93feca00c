package str

// minDynamicCap is the smallest capacity a Dynamic is created with.
const minDynamicCap = 7

// Dynamic is a growable, single-owner byte string. The buffer is
// NUL-terminated after every mutation. The zero value is an empty string,
// and so is a Dynamic after Fini.
type Dynamic struct {
	buf []byte // capacity+1 bytes
	len int
}

// NewDynamic creates a string with capacity for n bytes.
func NewDynamic(n int) *Dynamic {
	d := &Dynamic{}
	d.Init(n)
	return d
}

// Init (re)initializes d with capacity for n bytes.
func (d *Dynamic) Init(n int) {
	if n < minDynamicCap {
		n = minDynamicCap
	}
	d.buf = make([]byte, n+1)
	d.len = 0
}

// Fini releases the buffer. d stays usable and reallocates on the next
// mutation.
func (d *Dynamic) Fini() {
	d.buf = nil
	d.len = 0
}

// Len returns the length in bytes.
func (d *Dynamic) Len() int { return d.len }

// Cap returns the capacity in bytes, excluding the terminator.
func (d *Dynamic) Cap() int {
	if d.buf == nil {
		return 0
	}
	return len(d.buf) - 1
}

// lazyInit allocates the minimum buffer for a zero or finalized d.
func (d *Dynamic) lazyInit() {
	if d.buf == nil {
		d.Init(0)
	}
}

func (d *Dynamic) resize(n int) {
	buf := make([]byte, n+1)
	copy(buf, d.buf[:d.len+1])
	d.buf = buf
}

// Reserve grows capacity to at least n bytes.
func (d *Dynamic) Reserve(n int) {
	d.lazyInit()
	if d.Cap() < n {
		d.resize(n)
	}
}

// Clear empties the string.
func (d *Dynamic) Clear() {
	d.lazyInit()
	d.len = 0
	d.buf[0] = 0
}

// Assign replaces the contents with b.
func (d *Dynamic) Assign(b []byte) {
	d.Clear()
	d.Append(b)
}

// AssignString replaces the contents with s.
func (d *Dynamic) AssignString(s string) {
	d.Clear()
	d.AppendString(s)
}

func (d *Dynamic) grow(newLen int) {
	d.lazyInit()
	if newLen <= d.Cap() {
		return
	}
	n := d.Cap() * 2
	if newLen > n {
		n = newLen
	}
	d.resize(n)
}

// Append appends b.
func (d *Dynamic) Append(b []byte) {
	newLen := d.len + len(b)
	d.grow(newLen)
	copy(d.buf[d.len:], b)
	d.buf[newLen] = 0
	d.len = newLen
}

// AppendString appends s.
func (d *Dynamic) AppendString(s string) {
	newLen := d.len + len(s)
	d.grow(newLen)
	copy(d.buf[d.len:], s)
	d.buf[newLen] = 0
	d.len = newLen
}

// AppendByte appends c.
func (d *Dynamic) AppendByte(c byte) {
	d.grow(d.len + 1)
	d.buf[d.len] = c
	d.len++
	d.buf[d.len] = 0
}

// Bytes returns the contents without the terminator. The slice aliases the
// buffer until the next mutation.
func (d *Dynamic) Bytes() []byte {
	return d.buf[:d.len]
}

// CString returns the contents including the NUL terminator.
func (d *Dynamic) CString() []byte {
	if d.buf == nil {
		return []byte{0}
	}
	return d.buf[:d.len+1]
}

// String returns a copy of the contents.
func (d *Dynamic) String() string {
	return string(d.buf[:d.len])
}
