package ring

import "fmt"

// Buffer is a fixed-capacity circular buffer with overwrite-oldest semantics.
//
// Values are appended with Push and read back in logical order (oldest
// first) with At or Values. Once the write cursor has wrapped, the buffer
// reports Filled and every further Push overwrites the logically oldest
// value. The zero value is not usable; create buffers with New.
//
// Thread Safety:
//   - Not safe for concurrent use. Callers own synchronisation; in this
//     codebase all buffers are confined to the engine's periodic task.
type Buffer[T any] struct {
	slots  []T
	cursor int
	filled bool
}

// New creates a Buffer with the given capacity.
//
// Capacity must be positive; New panics otherwise, as an invalid capacity
// is a programming error at the call site, not a runtime condition.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("ring: invalid capacity %d", capacity))
	}
	return &Buffer[T]{
		slots: make([]T, capacity),
	}
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer[T]) Cap() int {
	return len(b.slots)
}

// Len returns the number of populated slots.
//
// Len grows from 0 to Cap as values are pushed and stays at Cap once the
// buffer has wrapped.
func (b *Buffer[T]) Len() int {
	if b.filled {
		return len(b.slots)
	}
	return b.cursor
}

// Filled reports whether the write cursor has wrapped at least once.
// It latches true on the first wrap and stays true until Clear.
func (b *Buffer[T]) Filled() bool {
	return b.filled
}

// Push appends a value, overwriting the logically oldest value once the
// buffer is full.
func (b *Buffer[T]) Push(v T) {
	b.slots[b.cursor] = v
	b.cursor = (b.cursor + 1) % len(b.slots)
	if b.cursor == 0 {
		b.filled = true
	}
}

// At returns the value at logical index i, where index 0 is the oldest
// populated value and Len()-1 is the newest.
//
// The second return value is false when i is outside [0, Len()).
func (b *Buffer[T]) At(i int) (T, bool) {
	if i < 0 || i >= b.Len() {
		var zero T
		return zero, false
	}
	if b.filled {
		return b.slots[(b.cursor+i)%len(b.slots)], true
	}
	return b.slots[i], true
}

// Values returns a copy of the populated slots in logical order, oldest
// first. The returned slice is owned by the caller.
func (b *Buffer[T]) Values() []T {
	n := b.Len()
	out := make([]T, n)
	for i := 0; i < n; i++ {
		v, _ := b.At(i)
		out[i] = v
	}
	return out
}

// Clear resets the buffer to empty, zeroing all slots so that previously
// held values can be collected.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.slots {
		b.slots[i] = zero
	}
	b.cursor = 0
	b.filled = false
}
