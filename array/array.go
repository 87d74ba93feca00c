// Package array implements growable arrays with explicit capacity control.
package array

// bootstrapCap is the capacity of an array that grows from zero.
const bootstrapCap = 2

// Array is a dynamic array of T. Capacity doubles on demand and never
// shrinks implicitly; Shrink releases unused capacity explicitly.
type Array[T any] struct {
	data []T // len(data) is the capacity
	len  int
}

// Pointers is an array of untyped references.
type Pointers = Array[any]

// New creates an array with capacity n.
func New[T any](n int) *Array[T] {
	a := &Array[T]{}
	a.Init(n)
	return a
}

// Init (re)initializes the array with capacity n.
func (a *Array[T]) Init(n int) {
	if n > 0 {
		a.data = make([]T, n)
	} else {
		a.data = nil
	}
	a.len = 0
}

// Fini releases the storage.
func (a *Array[T]) Fini() {
	a.data = nil
	a.len = 0
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return a.len }

// Cap returns the capacity.
func (a *Array[T]) Cap() int { return len(a.data) }

// Reserve grows capacity to at least n.
func (a *Array[T]) Reserve(n int) {
	if len(a.data) < n {
		a.realloc(n)
	}
}

func (a *Array[T]) realloc(n int) {
	data := make([]T, n)
	copy(data, a.data[:a.len])
	a.data = data
}

// Shrink reduces capacity to the number of elements.
func (a *Array[T]) Shrink() {
	if a.len == len(a.data) {
		return
	}
	a.realloc(a.len)
}

// Append adds elem at the end.
func (a *Array[T]) Append(elem T) {
	if a.len == len(a.data) {
		n := len(a.data) * 2
		if n == 0 {
			n = bootstrapCap
		}
		a.realloc(n)
	}
	a.data[a.len] = elem
	a.len++
}

// Extend appends every element of other.
func (a *Array[T]) Extend(other *Array[T]) {
	a.Reserve(a.len + other.len)
	copy(a.data[a.len:], other.data[:other.len])
	a.len += other.len
}

// Drop removes the last element. The array must not be empty.
func (a *Array[T]) Drop() {
	if a.len == 0 {
		panic("array: drop from empty array")
	}
	a.len--
	var zero T
	a.data[a.len] = zero
}

// Clear removes every element, keeping capacity.
func (a *Array[T]) Clear() {
	clear(a.data[:a.len])
	a.len = 0
}

// At returns element i.
func (a *Array[T]) At(i int) T {
	return a.data[:a.len][i]
}

// Set replaces element i.
func (a *Array[T]) Set(i int, elem T) {
	a.data[:a.len][i] = elem
}

// Last returns the last element. The array must not be empty.
func (a *Array[T]) Last() T {
	return a.data[a.len-1]
}

// Data returns the live elements. The slice aliases the array's storage until
// the next growth.
func (a *Array[T]) Data() []T {
	return a.data[:a.len]
}
