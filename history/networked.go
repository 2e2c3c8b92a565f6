package history

import (
	"fmt"

	"github.com/maxpoletaev/lockstep/frame"
)

// Status is the tri-state tag attached to every slot of a Networked
// history.
type Status uint8

const (
	// Empty is the default-initialized placeholder state: no value has
	// ever been written to this slot.
	Empty Status = iota
	// Predicted marks a slot filled by the prediction policy; it is
	// provisional and may be overwritten by a Canonical arrival.
	Predicted
	// Canonical marks a slot filled with an authoritative value
	// received from the peer. Canonical never regresses to Predicted
	// or Empty.
	Canonical
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Predicted:
		return "predicted"
	case Canonical:
		return "canonical"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// PredictionResult reports the outcome of inserting a Canonical value
// into a Networked history slot.
type PredictionResult uint8

const (
	// Unpredicted means the slot held no prediction at all (it was
	// Empty, or lay beyond the held tail). An already-Canonical slot
	// reports Correct instead.
	Unpredicted PredictionResult = iota
	// Correct means a Predicted value matched the arriving Canonical
	// value.
	Correct
	// Wrong means a Predicted value did not match the arriving
	// Canonical value; the simulation must roll back to this frame.
	Wrong
)

func (r PredictionResult) String() string {
	switch r {
	case Unpredicted:
		return "unpredicted"
	case Correct:
		return "correct"
	case Wrong:
		return "wrong"
	default:
		return fmt.Sprintf("prediction_result(%d)", uint8(r))
	}
}

// Networked is a frame-indexed history of inputs belonging to a
// (potentially remote) player, with tri-state provenance tracking used
// to drive prediction and rollback.
type Networked[T comparable] struct {
	values *frame.Buffer[T]
	status *frame.Buffer[Status]
}

// NewNetworked returns an empty networked input history.
func NewNetworked[T comparable]() *Networked[T] {
	return &Networked[T]{
		values: frame.New[T](),
		status: frame.New[Status](),
	}
}

// Front returns the oldest frame still held.
func (h *Networked[T]) Front() frame.Number {
	return h.values.Front()
}

// Len returns the number of frames currently held.
func (h *Networked[T]) Len() int {
	return h.values.Len()
}

// HasInput reports whether the slot at f is Canonical.
func (h *Networked[T]) HasInput(f frame.Number) bool {
	return h.statusAt(f) == Canonical
}

// IsPredictedInput reports whether the slot at f is Predicted.
func (h *Networked[T]) IsPredictedInput(f frame.Number) bool {
	return h.statusAt(f) == Predicted
}

// IsEmptyInput reports whether the slot at f is Empty. A frame beyond
// the held tail is also considered Empty, since it carries no value
// yet.
func (h *Networked[T]) IsEmptyInput(f frame.Number) bool {
	return h.statusAt(f) == Empty
}

func (h *Networked[T]) statusAt(f frame.Number) Status {
	idx, ok := h.status.TryAdjust(f)
	if !ok {
		panic(fmt.Sprintf("history: requested frame %d is before front %d", f, h.Front()))
	}

	if idx >= h.status.Len() {
		return Empty
	}

	return h.status.At(f)
}

// AddInput inserts a Canonical value at the given frame, extending the
// history with Empty slots if necessary, and reports how it interacted
// with any existing prediction:
//
//   - a slot beyond the current tail is extended and set Canonical:
//     Unpredicted.
//   - an Empty slot becomes Canonical: Unpredicted.
//   - a Predicted slot becomes Canonical: Correct if the values are
//     equal, Wrong (keeping the new value) otherwise.
//   - an already-Canonical slot is left untouched (first writer wins):
//     Correct.
func (h *Networked[T]) AddInput(f frame.Number, value T) PredictionResult {
	if f >= h.values.Tail() {
		var zero T

		h.values.ExtendTo(f, zero)
		h.status.ExtendTo(f, Empty)
		h.values.Set(f, value)
		h.status.Set(f, Canonical)

		return Unpredicted
	}

	switch h.status.At(f) {
	case Empty:
		h.values.Set(f, value)
		h.status.Set(f, Canonical)

		return Unpredicted

	case Predicted:
		prev := h.values.At(f)
		h.values.Set(f, value)
		h.status.Set(f, Canonical)

		if prev == value {
			return Correct
		}

		return Wrong

	case Canonical:
		return Correct

	default:
		panic(fmt.Sprintf("history: unknown status %v at frame %d", h.status.At(f), f))
	}
}

// Predict writes the most recent Canonical value (or T's zero value if
// none exists yet) into the slot at f, marking it Predicted. Any
// intermediate frames between the current tail and f are filled Empty.
func (h *Networked[T]) Predict(f frame.Number) {
	value := h.lastCanonical()

	var zero T
	if f >= h.values.Tail() {
		h.values.ExtendTo(f, zero)
		h.status.ExtendTo(f, Empty)
	}

	h.values.Set(f, value)
	h.status.Set(f, Predicted)
}

// Repredict re-stamps the prediction at f using the newest available
// Canonical value as the baseline. Used during rollback replay, where
// the baseline may have improved since the original Predict call. f
// must already hold a Predicted slot.
func (h *Networked[T]) Repredict(f frame.Number) {
	if h.status.At(f) != Predicted {
		panic(fmt.Sprintf("history: repredict called on non-predicted frame %d (%v)", f, h.status.At(f)))
	}

	h.values.Set(f, h.lastCanonical())
}

// lastCanonical scans backward from the tail for the most recent
// Canonical value, returning T's zero value if none is found.
func (h *Networked[T]) lastCanonical() T {
	for i := h.values.Len() - 1; i >= 0; i-- {
		f := h.Front() + frame.Number(i)
		if h.status.At(f) == Canonical {
			return h.values.At(f)
		}
	}

	var zero T

	return zero
}

// GetInputs returns the absolute starting frame and a slice of up to
// amount entries ending at min(f, last held frame). The returned slice
// aliases internal storage and must be copied before the history is
// mutated again.
func (h *Networked[T]) GetInputs(f frame.Number, amount int) (frame.Number, []T) {
	if h.values.Len() == 0 {
		return h.values.Front(), nil
	}

	if last := h.values.Last(); f > last {
		f = last
	}

	return h.values.Slice(f, amount)
}

// Clean drops every frame older than target, advancing the front.
func (h *Networked[T]) Clean(target frame.Number) {
	h.values.Clean(target)
	h.status.Clean(target)
}
