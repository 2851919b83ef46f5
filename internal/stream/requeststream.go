package stream

import "github.com/GooDer/rsocket-go/internal/flow"

// NewRequestStream creates either side's view of a REQUEST_STREAM
// exchange, per spec §4.D. initialN is the credit carried on the
// initiating frame: the requester is on the receiving end of the
// resulting PAYLOADs, so it tracks initialN as InboundCredit (what it
// granted the responder); the responder tracks it as OutboundCredit
// (what it may spend).
func NewRequestStream(id uint32, initiator Direction, initialN uint32) *Stream {
	s := &Stream{ID: id, Kind: KindRequestStream, Initiator: initiator}
	if initiator == DirRequester {
		s.SendState, s.RecvState = StateClosed, StateActive
		s.InboundCredit = flow.NewWindow(initialN)
	} else {
		s.SendState, s.RecvState = StateActive, StateClosed
		s.OutboundCredit = flow.NewWindow(initialN)
	}
	return s
}

// Emit reserves one unit of outbound credit for a PAYLOAD(N=1) this side
// is about to send. The caller must not send the frame if this returns an
// error (a credit underflow, per spec §4.F).
func (s *Stream) Emit() error { return s.takeOutboundCredit() }

// OnPayloadReceived records one inbound PAYLOAD(N=1) against the credit
// this side granted the peer.
func (s *Stream) OnPayloadReceived() error { return s.takeInboundCredit() }

// MarkComplete closes both directions once a terminal PAYLOAD(C=1) or
// ERROR is observed, or the stream is cancelled.
func (s *Stream) MarkComplete() { s.Close() }
