package history

import (
	"testing"

	"github.com/maxpoletaev/lockstep/frame"
)

func TestLocalAddInputAppendsAtTail(t *testing.T) {
	h := NewLocal[int]()

	for i := 0; i < 5; i++ {
		f := h.AddInput(i)
		if f != frame.Number(i) {
			t.Fatalf("AddInput(%d) placed at frame %d, want %d", i, f, i)
		}
	}

	if !h.HasInput(4) {
		t.Fatal("expected input at frame 4")
	}

	if h.HasInput(5) {
		t.Fatal("did not expect input at frame 5")
	}
}

func TestLocalGetInputsWindow(t *testing.T) {
	h := NewLocal[int]()
	for i := 0; i < 10; i++ {
		h.AddInput(i)
	}

	start, values := h.GetInputs(9, 4)
	if start != 6 {
		t.Fatalf("start = %d, want 6", start)
	}

	want := []int{6, 7, 8, 9}
	for i, v := range values {
		if v != want[i] {
			t.Fatalf("values[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestLocalGetInputsBeyondTailClampsToLast(t *testing.T) {
	h := NewLocal[int]()
	h.AddInput(1)
	h.AddInput(2)

	start, values := h.GetInputs(100, 2)
	if start != 0 {
		t.Fatalf("start = %d, want 0", start)
	}

	if len(values) != 2 || values[1] != 2 {
		t.Fatalf("values = %v, want trailing [1 2]", values)
	}
}

func TestLocalGetInputsBelowFrontClampsToFront(t *testing.T) {
	h := NewLocal[int]()
	for i := 0; i < 10; i++ {
		h.AddInput(i)
	}

	h.Clean(7)

	start, values := h.GetInputs(2, 4)
	if start != 7 {
		t.Fatalf("start = %d, want 7", start)
	}

	if len(values) != 1 || values[0] != 7 {
		t.Fatalf("values = %v, want [7]", values)
	}
}

func TestLocalClean(t *testing.T) {
	h := NewLocal[int]()
	for i := 0; i < 10; i++ {
		h.AddInput(i)
	}

	h.Clean(7)

	if h.Front() != 7 {
		t.Fatalf("front = %d, want 7", h.Front())
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
}
