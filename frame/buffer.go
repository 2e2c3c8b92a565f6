// Package frame implements the dense, frame-indexed buffer the input
// histories are built on: a sliding window over absolute frame numbers
// with no holes between its front and its tail.
package frame

import "fmt"

// Number is an absolute, monotonically increasing simulation frame
// number. Frame 0 is the first simulated frame.
type Number uint64

// Buffer is a dense sequence of values addressed by absolute frame
// number. Index 0 always corresponds to frame Front(); the buffer never
// has holes between Front() and Front()+Len().
type Buffer[T any] struct {
	front Number
	data  []T
}

// New returns an empty buffer whose front starts at frame 0.
func New[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Front returns the absolute frame number stored at index 0.
func (b *Buffer[T]) Front() Number {
	return b.front
}

// Len returns the number of frames currently held.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Tail returns the frame number one past the last held frame, i.e. the
// frame a newly appended value would occupy.
func (b *Buffer[T]) Tail() Number {
	return b.front + Number(len(b.data))
}

// Last returns the most recently held frame number. Only valid when
// Len() > 0.
func (b *Buffer[T]) Last() Number {
	return b.front + Number(len(b.data)) - 1
}

// adjust converts an absolute frame into an index into data. A request
// for a frame older than the front is a programmer error: it means the
// caller is addressing data that has already been garbage collected.
func (b *Buffer[T]) adjust(f Number) int {
	if f < b.front {
		panic(fmt.Sprintf("frame: requested frame %d is before front %d", f, b.front))
	}

	return int(f - b.front)
}

// TryAdjust is the non-panicking form of adjust, used by callers that
// need to tolerate an out-of-range frame (e.g. a duplicate or stale
// network packet) instead of treating it as a programmer error.
func (b *Buffer[T]) TryAdjust(f Number) (int, bool) {
	if f < b.front {
		return 0, false
	}

	return int(f - b.front), true
}

// At returns the value stored at the given absolute frame. The frame
// must be within [Front(), Tail()).
func (b *Buffer[T]) At(f Number) T {
	idx := b.adjust(f)
	if idx >= len(b.data) {
		panic(fmt.Sprintf("frame: requested frame %d is past tail %d", f, b.Tail()))
	}

	return b.data[idx]
}

// Set overwrites the value stored at the given absolute frame. The
// frame must already be held by the buffer.
func (b *Buffer[T]) Set(f Number, v T) {
	idx := b.adjust(f)
	if idx >= len(b.data) {
		panic(fmt.Sprintf("frame: requested frame %d is past tail %d", f, b.Tail()))
	}

	b.data[idx] = v
}

// Has reports whether the buffer currently holds a value for the given
// frame, without panicking on out-of-range frames.
func (b *Buffer[T]) Has(f Number) bool {
	idx, ok := b.TryAdjust(f)
	if !ok {
		return false
	}

	return idx < len(b.data)
}

// Push appends a value to the tail and returns the frame it was placed
// at.
func (b *Buffer[T]) Push(v T) Number {
	b.data = append(b.data, v)
	return b.Tail() - 1
}

// ExtendTo grows the buffer up to (and including) the given frame,
// filling any gap with the supplied zero value. It is a no-op if the
// frame is already held.
func (b *Buffer[T]) ExtendTo(f Number, zero T) {
	idx := b.adjust(f)

	for idx >= len(b.data) {
		b.data = append(b.data, zero)
	}
}

// Clean drops every frame older than target, advancing the front. It is
// a no-op if target is at or before the current front.
func (b *Buffer[T]) Clean(target Number) {
	if target <= b.front {
		return
	}

	drop := int(target - b.front)
	if drop > len(b.data) {
		drop = len(b.data)
	}

	b.data = append(b.data[:0], b.data[drop:]...)
	b.front = target
}

// Slice returns, for the trailing window of up to amount frames ending
// at (and including) frame f, the absolute frame of its first entry
// together with the entries themselves. If f is beyond the buffer's
// last held frame, the window ends at the last held frame instead. The
// returned slice aliases the buffer's backing array and must not be
// retained across a mutating call.
func (b *Buffer[T]) Slice(f Number, amount int) (start Number, values []T) {
	if len(b.data) == 0 {
		return b.front, nil
	}

	end := b.adjust(f) + 1
	if end > len(b.data) {
		end = len(b.data)
	}

	begin := end - amount
	if begin < 0 {
		begin = 0
	}

	return b.front + Number(begin), b.data[begin:end]
}
