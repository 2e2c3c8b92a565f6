// Package packet defines the small set of message kinds exchanged
// between netcode peers. Encoding is intentionally left opaque to the
// core (see the transport package for a concrete gob-based framing);
// this package only models the schema spec.md §6 describes.
package packet

import "github.com/maxpoletaev/lockstep/frame"

// Handle identifies a registered player. It is an opaque small integer
// assigned sequentially by a netcode.Client as players are registered.
type Handle int

// Kind tags which variant a Packet holds.
type Kind uint8

const (
	// KindInputs carries a redundant trailing-window batch of one
	// player's inputs plus a clock-skew tag.
	KindInputs Kind = iota
	// KindRequest asks the peer for local-player inputs at a frame.
	KindRequest
	// KindProvide responds to a Request with one entry per local
	// player the responder owns.
	KindProvide
)

func (k Kind) String() string {
	switch k {
	case KindInputs:
		return "inputs"
	case KindRequest:
		return "request"
	case KindProvide:
		return "provide"
	default:
		return "unknown"
	}
}

// InputsData is the payload of a KindInputs packet.
type InputsData[T any] struct {
	Sender      Handle
	SentOnFrame frame.Number
	StartFrame  frame.Number
	Values      []T
}

// RequestData is the payload of a KindRequest packet.
type RequestData struct {
	Frame frame.Number
}

// ProvideEntry is one player's contribution to a KindProvide packet.
type ProvideEntry[T any] struct {
	Handle Handle
	Frame  frame.Number
	Values []T
}

// ProvideData is the payload of a KindProvide packet.
type ProvideData[T any] struct {
	Entries []ProvideEntry[T]
}

// Packet is a tagged union of the three message kinds. Exactly one of
// the payload accessors is meaningful, selected by Kind.
type Packet[T any] struct {
	kind    Kind
	inputs  InputsData[T]
	request RequestData
	provide ProvideData[T]
}

// Kind returns which variant p holds.
func (p Packet[T]) Kind() Kind {
	return p.kind
}

// Inputs builds a KindInputs packet.
func Inputs[T any](sender Handle, sentOnFrame, startFrame frame.Number, values []T) Packet[T] {
	return Packet[T]{
		kind: KindInputs,
		inputs: InputsData[T]{
			Sender:      sender,
			SentOnFrame: sentOnFrame,
			StartFrame:  startFrame,
			Values:      values,
		},
	}
}

// Request builds a KindRequest packet.
func Request[T any](frame frame.Number) Packet[T] {
	return Packet[T]{kind: KindRequest, request: RequestData{Frame: frame}}
}

// Provide builds a KindProvide packet.
func Provide[T any](entries []ProvideEntry[T]) Packet[T] {
	return Packet[T]{kind: KindProvide, provide: ProvideData[T]{Entries: entries}}
}

// AsInputs returns the Inputs payload and true if p is a KindInputs
// packet.
func (p Packet[T]) AsInputs() (InputsData[T], bool) {
	return p.inputs, p.kind == KindInputs
}

// AsRequest returns the Request payload and true if p is a KindRequest
// packet.
func (p Packet[T]) AsRequest() (RequestData, bool) {
	return p.request, p.kind == KindRequest
}

// AsProvide returns the Provide payload and true if p is a KindProvide
// packet.
func (p Packet[T]) AsProvide() (ProvideData[T], bool) {
	return p.provide, p.kind == KindProvide
}
