// Package transport implements the host-side plumbing the engine
// itself stays agnostic to (spec.md §1 names this an external
// collaborator): framing packet.Packet values over a stream connection,
// and an artificial-delay/packet-loss injector for exercising the
// engine's loss-tolerance under test.
package transport

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/maxpoletaev/lockstep/packet"
)

// maxMessageSize bounds a single encoded packet, guarding against a
// corrupt length prefix turning into an unbounded allocation.
const maxMessageSize = 1 << 20

// wireMessage is the gob-friendly mirror of packet.Packet[T]: the
// latter keeps its fields unexported to enforce the "exactly one
// payload" invariant through its constructors, so encoding goes through
// this exported shadow instead of reflecting over Packet directly.
type wireMessage[T any] struct {
	Kind    packet.Kind
	Inputs  packet.InputsData[T]
	Request packet.RequestData
	Provide packet.ProvideData[T]
}

func toWire[T any](p packet.Packet[T]) wireMessage[T] {
	w := wireMessage[T]{Kind: p.Kind()}

	switch p.Kind() {
	case packet.KindInputs:
		w.Inputs, _ = p.AsInputs()
	case packet.KindRequest:
		w.Request, _ = p.AsRequest()
	case packet.KindProvide:
		w.Provide, _ = p.AsProvide()
	}

	return w
}

func fromWire[T any](w wireMessage[T]) packet.Packet[T] {
	switch w.Kind {
	case packet.KindInputs:
		return packet.Inputs(w.Inputs.Sender, w.Inputs.SentOnFrame, w.Inputs.StartFrame, w.Inputs.Values)
	case packet.KindRequest:
		return packet.Request[T](w.Request.Frame)
	case packet.KindProvide:
		return packet.Provide(w.Provide.Entries)
	default:
		var zero packet.Packet[T]
		return zero
	}
}

// WriteMessage encodes p and writes it to w as a length-prefixed gob
// blob, one call self-contained (no cross-message encoder state), so
// it is also usable to frame individual UDP-style datagrams.
func WriteMessage[T any](w io.Writer, p packet.Packet[T]) error {
	var buf []byte

	bw := &byteCollector{}
	if err := gob.NewEncoder(bw).Encode(toWire(p)); err != nil {
		return fmt.Errorf("transport: encode: %w", err)
	}

	buf = bw.data

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(buf)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("transport: write header: %w", err)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("transport: write payload: %w", err)
	}

	return nil
}

// ReadMessage reads one length-prefixed gob blob from r and decodes it.
func ReadMessage[T any](r io.Reader) (packet.Packet[T], error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		var zero packet.Packet[T]
		return zero, fmt.Errorf("transport: read header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxMessageSize {
		var zero packet.Packet[T]
		return zero, fmt.Errorf("transport: message of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		var zero packet.Packet[T]
		return zero, fmt.Errorf("transport: read payload: %w", err)
	}

	var w wireMessage[T]
	if err := gob.NewDecoder(newByteReader(payload)).Decode(&w); err != nil {
		var zero packet.Packet[T]
		return zero, fmt.Errorf("transport: decode: %w", err)
	}

	return fromWire(w), nil
}

// byteCollector is an io.Writer that accumulates everything written to
// it, used to size-prefix a gob-encoded message before sending it.
type byteCollector struct {
	data []byte
}

func (b *byteCollector) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func newByteReader(p []byte) io.Reader {
	return &sliceReader{data: p}
}

type sliceReader struct {
	data []byte
	pos  int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	n := copy(p, r.data[r.pos:])
	r.pos += n

	return n, nil
}
