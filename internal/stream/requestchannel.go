package stream

import "github.com/GooDer/rsocket-go/internal/flow"

// NewRequestChannel creates either side's view of a REQUEST_CHANNEL
// exchange, per spec §4.D: a fully bidirectional stream where each side
// independently tracks credit it owes the peer and credit it has been
// granted. initialN is the credit the requester grants the responder's
// outbound direction on REQUEST_CHANNEL; the requester's own outbound
// direction starts with no credit until the responder issues REQUEST_N.
func NewRequestChannel(id uint32, initiator Direction, initialN uint32) *Stream {
	s := &Stream{ID: id, Kind: KindRequestChannel, Initiator: initiator, SendState: StateActive, RecvState: StateActive}
	if initiator == DirRequester {
		s.InboundCredit = flow.NewWindow(initialN)
		s.OutboundCredit = flow.NewWindow(0)
	} else {
		s.OutboundCredit = flow.NewWindow(initialN)
		s.InboundCredit = flow.NewWindow(0)
	}
	return s
}

// CompleteSend closes this side's outbound direction, the effect of
// sending PAYLOAD(C=1). CompleteRecv does the same for the inbound
// direction upon receiving it. The stream is fully closed, per Terminated,
// only once both have happened — independently of which side closes
// first, per spec §4.D.
func (s *Stream) CompleteSend() { s.SendState = StateClosed }

func (s *Stream) CompleteRecv() { s.RecvState = StateClosed }
