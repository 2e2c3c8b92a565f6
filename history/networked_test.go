package history

import (
	"testing"

	"github.com/maxpoletaev/lockstep/frame"
)

func TestNetworkedAddInputUnpredictedOnEmptyAndExtend(t *testing.T) {
	h := NewNetworked[int]()

	if got := h.AddInput(0, 5); got != Unpredicted {
		t.Fatalf("AddInput(0) = %v, want Unpredicted", got)
	}

	// Jump ahead, leaving a gap of Empty slots.
	if got := h.AddInput(3, 9); got != Unpredicted {
		t.Fatalf("AddInput(3) = %v, want Unpredicted", got)
	}

	if !h.IsEmptyInput(1) || !h.IsEmptyInput(2) {
		t.Fatal("expected frames 1 and 2 to be Empty")
	}

	if !h.HasInput(3) {
		t.Fatal("expected frame 3 to be Canonical")
	}
}

func TestNetworkedFirstWriterWinsOnCanonical(t *testing.T) {
	h := NewNetworked[int]()

	h.AddInput(0, 5)

	if got := h.AddInput(0, 6); got != Correct {
		t.Fatalf("re-adding frame 0 = %v, want Correct", got)
	}

	_, values := h.GetInputs(0, 1)
	if len(values) != 1 || values[0] != 5 {
		t.Fatalf("values = %v, want [5] (first writer wins)", values)
	}
}

func TestNetworkedPredictThenCorrect(t *testing.T) {
	h := NewNetworked[int]()
	h.AddInput(0, 7)
	h.Predict(1)

	if !h.IsPredictedInput(1) {
		t.Fatal("expected frame 1 to be Predicted")
	}

	_, values := h.GetInputs(1, 1)
	if values[0] != 7 {
		t.Fatalf("predicted value = %d, want 7 (repeat last canonical)", values[0])
	}

	if got := h.AddInput(1, 7); got != Correct {
		t.Fatalf("AddInput(1, 7) = %v, want Correct", got)
	}

	if !h.HasInput(1) {
		t.Fatal("expected frame 1 to be Canonical after correct prediction")
	}
}

func TestNetworkedPredictThenWrong(t *testing.T) {
	h := NewNetworked[int]()
	h.AddInput(0, 0)
	h.Predict(1)

	if got := h.AddInput(1, 42); got != Wrong {
		t.Fatalf("AddInput(1, 42) = %v, want Wrong", got)
	}

	_, values := h.GetInputs(1, 1)
	if values[0] != 42 {
		t.Fatalf("value after wrong prediction = %d, want 42 (overwritten)", values[0])
	}
}

func TestNetworkedRepredictUsesLatestCanonical(t *testing.T) {
	h := NewNetworked[int]()
	h.AddInput(0, 1)
	h.Predict(1)
	h.Predict(2)

	// Re-adding frame 0 before the replay leaves the newest canonical
	// baseline unchanged.
	h.AddInput(0, 1) // no-op, still canonical 1
	h.Repredict(1)
	h.Repredict(2)

	_, v1 := h.GetInputs(1, 1)
	_, v2 := h.GetInputs(2, 1)

	if v1[0] != 1 || v2[0] != 1 {
		t.Fatalf("repredicted values = %d, %d, want 1, 1", v1[0], v2[0])
	}
}

func TestNetworkedRepredictPanicsOnNonPredicted(t *testing.T) {
	h := NewNetworked[int]()
	h.AddInput(0, 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic repredicting a Canonical frame")
		}
	}()

	h.Repredict(0)
}

func TestNetworkedStatusDefaultsBeyondTailToEmpty(t *testing.T) {
	h := NewNetworked[int]()
	h.AddInput(0, 1)

	if !h.IsEmptyInput(50) {
		t.Fatal("expected far-future frame to read as Empty")
	}
}

func TestNetworkedClean(t *testing.T) {
	h := NewNetworked[int]()
	for i := 0; i < 10; i++ {
		h.AddInput(frame.Number(i), i)
	}

	h.Clean(6)

	if h.Front() != 6 {
		t.Fatalf("front = %d, want 6", h.Front())
	}

	if !h.HasInput(6) {
		t.Fatal("expected frame 6 to still be Canonical after clean")
	}
}
