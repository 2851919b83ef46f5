// Package stream implements the per-connection stream registry and the
// four RSocket interaction-pattern state machines (fire-and-forget,
// request/response, request/stream, request/channel), per spec §4.C/§4.D.
package stream

import (
	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/flow"
)

// State is a per-direction stream state. The same three values describe
// both the send and receive direction of any interaction pattern; what
// "active" means (awaiting an answer, mid-sequence, etc.) is pattern
// specific and documented on each pattern's constructor.
type State uint8

const (
	StateIdle State = iota
	StateActive
	StateClosed
)

// Direction identifies which side of a stream created it.
type Direction uint8

const (
	// DirRequester means this connection sent the initiating request frame.
	DirRequester Direction = iota
	// DirResponder means the peer sent the initiating request frame.
	DirResponder
)

// Kind identifies which of the four interaction patterns a stream
// implements.
type Kind uint8

const (
	KindFireAndForget Kind = iota
	KindRequestResponse
	KindRequestStream
	KindRequestChannel
)

// Stream is the per-stream state shared by all four interaction patterns:
// identity, the per-direction state machine, credit windows, and a
// fragment reassembly buffer. Grounded on baranov1ch-http2/server.go's
// stream struct (id, state, flow *flow) — a small struct mutated only
// from the connection's event-loop goroutine, generalized from HTTP/2's
// byte-oriented flow control to RSocket's request-count credit.
type Stream struct {
	ID        uint32
	Kind      Kind
	Initiator Direction

	SendState State
	RecvState State

	// OutboundCredit is the credit this side has to emit PAYLOAD(N=1)
	// frames, granted by the peer's initial-n/REQUEST_N. nil when this
	// side never emits PAYLOAD(N=1) on this stream.
	OutboundCredit *flow.Window

	// InboundCredit is the credit this side has granted the peer to emit
	// PAYLOAD(N=1) frames to us; used to detect the peer overspending it.
	// nil when this side never receives PAYLOAD(N=1) on this stream.
	InboundCredit *flow.Window

	// Reassembly buffers fragments of an inbound frame still in progress
	// (FOLLOWS set on the most recent fragment received).
	Reassembly frame.Reassembler
}

// Terminated reports whether both directions of the stream have closed.
func (s *Stream) Terminated() bool {
	return s.SendState == StateClosed && s.RecvState == StateClosed
}

// Close closes both directions, the effect of a CANCEL or a connection
// loss: all further frames for this stream are ignored and it becomes
// eligible for the registry's tombstone set.
func (s *Stream) Close() {
	s.SendState = StateClosed
	s.RecvState = StateClosed
}

// takeOutboundCredit reserves one unit of credit for a PAYLOAD(N=1) this
// side is about to emit. Shared by request/stream and request/channel,
// whose emit-side bookkeeping is identical; request/response and
// fire-and-forget never call it (OutboundCredit stays nil for them).
func (s *Stream) takeOutboundCredit() error {
	if s.OutboundCredit == nil || !s.OutboundCredit.Take(1) {
		return StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "emit attempted without remaining credit"}
	}
	return nil
}

// takeInboundCredit records one inbound PAYLOAD(N=1), decrementing the
// credit this side granted the peer. Returns a StreamError if the peer
// spent more credit than it was ever granted.
func (s *Stream) takeInboundCredit() error {
	if s.InboundCredit == nil || !s.InboundCredit.Take(1) {
		return StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "peer emitted beyond granted credit"}
	}
	return nil
}
