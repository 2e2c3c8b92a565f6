package frame

import "testing"

func TestBufferPushAndAt(t *testing.T) {
	b := New[int]()

	for i := 0; i < 5; i++ {
		f := b.Push(i * 10)
		if f != Number(i) {
			t.Fatalf("push %d: got frame %d, want %d", i, f, i)
		}
	}

	if b.Len() != 5 {
		t.Fatalf("len = %d, want 5", b.Len())
	}

	for i := 0; i < 5; i++ {
		if got := b.At(Number(i)); got != i*10 {
			t.Fatalf("at(%d) = %d, want %d", i, got, i*10)
		}
	}
}

func TestBufferAdjustPanicsOnUnderflow(t *testing.T) {
	b := New[int]()
	b.Push(1)
	b.Clean(1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading a frame before front")
		}
	}()

	b.At(0)
}

func TestBufferClean(t *testing.T) {
	b := New[int]()
	for i := 0; i < 10; i++ {
		b.Push(i)
	}

	b.Clean(4)

	if b.Front() != 4 {
		t.Fatalf("front = %d, want 4", b.Front())
	}

	if b.Len() != 6 {
		t.Fatalf("len = %d, want 6", b.Len())
	}

	if got := b.At(4); got != 4 {
		t.Fatalf("at(4) = %d, want 4", got)
	}
}

func TestBufferCleanNoOpBeforeOrAtFront(t *testing.T) {
	b := New[int]()
	for i := 0; i < 5; i++ {
		b.Push(i)
	}

	b.Clean(5)
	if b.Front() != 5 || b.Len() != 0 {
		t.Fatalf("front=%d len=%d, want front=5 len=0", b.Front(), b.Len())
	}

	// Further clean at or before the current front must be a no-op.
	b.Clean(5)
	b.Clean(2)

	if b.Front() != 5 {
		t.Fatalf("front = %d, want unchanged 5", b.Front())
	}
}

func TestBufferExtendTo(t *testing.T) {
	b := New[int]()
	b.Push(1)
	b.ExtendTo(4, -1)

	if b.Len() != 5 {
		t.Fatalf("len = %d, want 5", b.Len())
	}

	for f := Number(1); f <= 4; f++ {
		if got := b.At(f); got != -1 {
			t.Fatalf("at(%d) = %d, want -1", f, got)
		}
	}
}

func TestBufferSlice(t *testing.T) {
	b := New[int]()
	for i := 0; i < 10; i++ {
		b.Push(i)
	}

	start, values := b.Slice(7, 3)
	if start != 5 {
		t.Fatalf("start = %d, want 5", start)
	}

	want := []int{5, 6, 7}
	if len(values) != len(want) {
		t.Fatalf("values = %v, want %v", values, want)
	}

	for i, v := range values {
		if v != want[i] {
			t.Fatalf("values[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestBufferSliceClampsToAvailable(t *testing.T) {
	b := New[int]()
	b.Push(1)
	b.Push(2)

	start, values := b.Slice(1, 10)
	if start != 0 {
		t.Fatalf("start = %d, want 0", start)
	}

	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want 2", len(values))
	}
}
