// Package binario is a small binary reader/writer used to encode
// simulation snapshots (wire packets are gob-framed by the transport
// package instead), in the same style the teacher
// project's console state save/load uses: a bytes.Buffer paired with an
// explicit byte order instead of a reflection-based codec.
package binario

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer sequentially encodes primitive values to an io.Writer using a
// fixed byte order.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	err   error
}

// NewWriter returns a Writer that encodes to w using order.
func NewWriter(w io.Writer, order binary.ByteOrder) *Writer {
	return &Writer{w: w, order: order}
}

// Err returns the first error encountered by any Write* call.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) writeRaw(p []byte) {
	if w.err != nil {
		return
	}

	_, w.err = w.w.Write(p)
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.writeRaw([]byte{v})
}

// WriteUint16 writes a 16-bit unsigned integer.
func (w *Writer) WriteUint16(v uint16) {
	var buf [2]byte
	w.order.PutUint16(buf[:], v)
	w.writeRaw(buf[:])
}

// WriteUint32 writes a 32-bit unsigned integer.
func (w *Writer) WriteUint32(v uint32) {
	var buf [4]byte
	w.order.PutUint32(buf[:], v)
	w.writeRaw(buf[:])
}

// WriteUint64 writes a 64-bit unsigned integer.
func (w *Writer) WriteUint64(v uint64) {
	var buf [8]byte
	w.order.PutUint64(buf[:], v)
	w.writeRaw(buf[:])
}

// WriteBool writes a single byte boolean.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteBytes writes a length-prefixed byte slice.
func (w *Writer) WriteBytes(p []byte) {
	w.WriteUint32(uint32(len(p)))
	w.writeRaw(p)
}

// Reader sequentially decodes primitive values from an io.Reader using
// a fixed byte order.
type Reader struct {
	r     io.Reader
	order binary.ByteOrder
	err   error
}

// NewReader returns a Reader that decodes from r using order.
func NewReader(r io.Reader, order binary.ByteOrder) *Reader {
	return &Reader{r: r, order: order}
}

// Err returns the first error encountered by any Read* call.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readRaw(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}

	buf := make([]byte, n)

	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = fmt.Errorf("binario: short read: %w", err)
	}

	return buf
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() uint8 {
	return r.readRaw(1)[0]
}

// ReadUint16 reads a 16-bit unsigned integer.
func (r *Reader) ReadUint16() uint16 {
	return r.order.Uint16(r.readRaw(2))
}

// ReadUint32 reads a 32-bit unsigned integer.
func (r *Reader) ReadUint32() uint32 {
	return r.order.Uint32(r.readRaw(4))
}

// ReadUint64 reads a 64-bit unsigned integer.
func (r *Reader) ReadUint64() uint64 {
	return r.order.Uint64(r.readRaw(8))
}

// ReadBool reads a single byte boolean.
func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

// ReadBytes reads a length-prefixed byte slice.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadUint32()
	return r.readRaw(int(n))
}
