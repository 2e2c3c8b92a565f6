package transport

import (
	"bytes"
	"testing"

	"github.com/maxpoletaev/lockstep/frame"
	"github.com/maxpoletaev/lockstep/packet"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	p := packet.Inputs[int](1, frame.Number(5), frame.Number(3), []int{7, 8, 9})

	if err := WriteMessage(&buf, p); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := ReadMessage[int](&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	data, ok := got.AsInputs()
	if !ok {
		t.Fatal("expected a KindInputs packet back")
	}

	if data.Sender != 1 || data.SentOnFrame != 5 || data.StartFrame != 3 {
		t.Fatalf("unexpected InputsData: %+v", data)
	}

	if len(data.Values) != 3 || data.Values[1] != 8 {
		t.Fatalf("Values = %v, want [7 8 9]", data.Values)
	}
}

// TestReadMessageSequenceOnSharedStream writes several messages back to
// back into one stream and reads them off one at a time through the same
// io.Reader, the way transport.Conn's readLoop repeatedly calls
// ReadMessage against one persistent net.Conn. A reader that over-buffers
// and discards bytes between calls would corrupt this sequence.
func TestReadMessageSequenceOnSharedStream(t *testing.T) {
	var buf bytes.Buffer

	want := []packet.Packet[int]{
		packet.Request[int](frame.Number(1)),
		packet.Inputs[int](0, frame.Number(2), frame.Number(2), []int{4}),
		packet.Provide([]packet.ProvideEntry[int]{{Handle: 0, Frame: 3, Values: []int{5, 6}}}),
	}

	for _, p := range want {
		if err := WriteMessage(&buf, p); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	for i, w := range want {
		got, err := ReadMessage[int](&buf)
		if err != nil {
			t.Fatalf("message %d: ReadMessage: %v", i, err)
		}

		if got.Kind() != w.Kind() {
			t.Fatalf("message %d: Kind() = %v, want %v", i, got.Kind(), w.Kind())
		}
	}

	if buf.Len() != 0 {
		t.Fatalf("expected stream fully consumed, %d bytes left over", buf.Len())
	}
}

func TestReadMessageRejectsOversizedHeader(t *testing.T) {
	var buf bytes.Buffer

	var header [4]byte
	header[0] = 0xFF // encodes a length far beyond maxMessageSize

	buf.Write(header[:])

	if _, err := ReadMessage[int](&buf); err == nil {
		t.Fatal("expected an error reading an oversized message header")
	}
}
