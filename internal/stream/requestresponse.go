package stream

import "github.com/GooDer/rsocket-go/frame"

// NewRequestResponse creates a request/response stream, per spec §4.D.
// The requester's send direction closes immediately after the initiating
// frame (nothing more to send but an optional CANCEL); its receive
// direction stays open until the single answer arrives. The responder is
// the mirror image.
func NewRequestResponse(id uint32, initiator Direction) *Stream {
	s := &Stream{ID: id, Kind: KindRequestResponse, Initiator: initiator}
	if initiator == DirRequester {
		s.SendState, s.RecvState = StateClosed, StateActive
	} else {
		s.SendState, s.RecvState = StateActive, StateClosed
	}
	return s
}

// MarkAnswered records the single terminal frame — PAYLOAD(C=1),
// PAYLOAD(N=1,C=1), or ERROR — that closes a request/response exchange.
// Returns a StreamError if this side already observed its terminal frame,
// enforcing spec §4.D's "duplicate terminals are protocol errors" rule.
func (s *Stream) MarkAnswered() error {
	var already bool
	if s.Initiator == DirRequester {
		already = s.RecvState == StateClosed
	} else {
		already = s.SendState == StateClosed
	}
	if already {
		return StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "duplicate terminal frame on request-response stream"}
	}
	s.Close()
	return nil
}
