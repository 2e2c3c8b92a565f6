// Package history implements the two input-history variants the
// netcode client drives: LocalHistory for inputs produced on this peer,
// and NetworkedHistory for inputs arriving from (or predicted on behalf
// of) a remote peer.
package history

import "github.com/maxpoletaev/lockstep/frame"

// Local is an append-only, frame-indexed history of locally produced
// inputs. Inputs are always added at the tail; the history never has
// holes.
type Local[T any] struct {
	buf *frame.Buffer[T]
}

// NewLocal returns an empty local input history.
func NewLocal[T any]() *Local[T] {
	return &Local[T]{buf: frame.New[T]()}
}

// Front returns the oldest frame still held.
func (h *Local[T]) Front() frame.Number {
	return h.buf.Front()
}

// Len returns the number of frames currently held.
func (h *Local[T]) Len() int {
	return h.buf.Len()
}

// HasInput reports whether an input has been recorded for the given
// frame.
func (h *Local[T]) HasInput(f frame.Number) bool {
	return h.buf.Has(f)
}

// AddInput appends value to the tail of the history and returns the
// absolute frame it was placed at. Note that this may not be the frame
// the caller intended to target: if the history has fallen behind (the
// caller's target frame is beyond the current tail), the value is still
// placed at the tail, which is closer to the front than requested. It
// is the caller's responsibility (see netcode.Client.HandleLocalInput)
// to check HasInput(target) before calling AddInput to avoid producing
// duplicate entries for the same logical tick.
func (h *Local[T]) AddInput(value T) frame.Number {
	return h.buf.Push(value)
}

// GetInputs returns the absolute starting frame and a slice of up to
// amount entries ending at f, clamped into [front, last held frame] so
// that a peer-supplied frame number (e.g. from a Request packet for a
// frame this history has since garbage collected, or one not yet
// produced) can never address past the held window.
func (h *Local[T]) GetInputs(f frame.Number, amount int) (frame.Number, []T) {
	if h.buf.Len() == 0 {
		return h.buf.Front(), nil
	}

	if last := h.buf.Last(); f > last {
		f = last
	}

	if front := h.buf.Front(); f < front {
		f = front
	}

	return h.buf.Slice(f, amount)
}

// Clean drops every frame older than target frame, advancing the front.
func (h *Local[T]) Clean(target frame.Number) {
	h.buf.Clean(target)
}
