package rsocket

import (
	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/stream"
)

// dispatchKnownStream routes one inbound frame for an already-registered
// stream, per spec §4.C/§4.D.
func (r *RSocket) dispatchKnownStream(s *stream.Stream, f frame.Frame) error {
	switch v := f.(type) {
	case *frame.Cancel:
		return r.handleCancel(s)
	case *frame.RequestN:
		return r.handleRequestN(s, v.N)
	case *frame.ErrorFrame:
		return r.handlePeerStreamError(s, v)
	case *frame.Payload:
		return r.handlePayloadFrame(s, v)
	default:
		return stream.StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "unexpected frame type for an established stream"}
	}
}

// handleCancel answers a requester's CANCEL, per spec §4.D: the responder
// stops producing immediately and the stream terminates without a reply
// frame of its own.
func (r *RSocket) handleCancel(s *stream.Stream) error {
	r.mu.Lock()
	s.Close()
	fs := r.streams[s.ID]
	r.mu.Unlock()

	r.abortStreamState(fs, stream.StreamError{StreamID: s.ID, Code: frame.ErrCanceled, Msg: "canceled by peer"})
	r.terminate(s.ID)
	return nil
}

// handleRequestN records additional outbound credit and wakes this
// stream's production pump, if it has one (only REQUEST_STREAM's
// responder and REQUEST_CHANNEL's either side ever do).
func (r *RSocket) handleRequestN(s *stream.Stream, n uint32) error {
	r.mu.Lock()
	if s.OutboundCredit != nil {
		s.OutboundCredit.Add(n)
	}
	fs := r.streams[s.ID]
	var pump *outboundPump
	if fs != nil {
		pump = fs.pump
	}
	r.mu.Unlock()

	if pump != nil {
		pump.wake()
	}
	return nil
}

// handlePeerStreamError answers the peer ending the stream early with an
// ERROR frame instead of a terminal PAYLOAD.
func (r *RSocket) handlePeerStreamError(s *stream.Stream, e *frame.ErrorFrame) error {
	r.mu.Lock()
	s.Close()
	fs := r.streams[s.ID]
	r.mu.Unlock()

	r.abortStreamState(fs, e)
	r.terminate(s.ID)
	return nil
}

func (r *RSocket) abortStreamState(fs *streamState, err error) {
	if fs == nil {
		return
	}
	if fs.responseCh != nil {
		select {
		case fs.responseCh <- responseResult{err: err}:
		default:
		}
	}
	if fs.inbound != nil {
		fs.inbound.fail(err)
	}
	if fs.pump != nil {
		fs.pump.cancel()
	}
}

// handlePayloadFrame feeds one wire fragment into the stream's Reassembler
// and, once a full logical PAYLOAD is assembled, routes it by pattern.
// Next/Complete are read off the final (non-FlagFollows) fragment only,
// per frame.Payload's doc comment: earlier fragments may legally carry
// neither flag.
func (r *RSocket) handlePayloadFrame(s *stream.Stream, p *frame.Payload) error {
	r.mu.Lock()
	outMeta, outData, done, err := s.Reassembly.Add(p.Metadata, p.Data, p.Follows)
	r.mu.Unlock()
	if err != nil {
		return stream.ConnectionError{Code: frame.ErrConnectionError, Msg: err.Error()}
	}
	if !done {
		return nil
	}

	// Next=0,Complete=0 is illegal on a fully reassembled logical frame per
	// spec.md §4.A: every terminal fragment must carry at least one of
	// them. Earlier FOLLOWS-set fragments legally carry neither, which is
	// exactly why this check runs here rather than in the Reassembler.
	if !p.Next && !p.Complete {
		return stream.StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "PAYLOAD with neither Next nor Complete set"}
	}

	payload := payloadFrom(outData, outMeta)
	switch s.Kind {
	case stream.KindRequestResponse:
		return r.deliverResponse(s, payload)
	case stream.KindRequestStream:
		return r.deliverStreamValue(s, payload, p.Next, p.Complete)
	case stream.KindRequestChannel:
		return r.deliverChannelValue(s, payload, p.Next, p.Complete)
	default:
		return stream.StreamError{StreamID: s.ID, Code: frame.ErrInvalid, Msg: "PAYLOAD on a fire-and-forget stream"}
	}
}

// deliverResponse completes a requester's REQUEST_RESPONSE wait. Only ever
// reached on the requester side — the responder answers its own request
// directly in runRequestResponse and never receives a PAYLOAD back.
func (r *RSocket) deliverResponse(s *stream.Stream, payload Payload) error {
	r.mu.Lock()
	err := s.MarkAnswered()
	fs := r.streams[s.ID]
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if fs != nil && fs.responseCh != nil {
		fs.responseCh <- responseResult{payload: payload}
	}
	r.terminate(s.ID)
	return nil
}

// deliverStreamValue feeds one inbound REQUEST_STREAM value (or its
// terminal) to the requester's Source. Only ever reached on the requester
// side, symmetric with deliverResponse.
func (r *RSocket) deliverStreamValue(s *stream.Stream, payload Payload, next, complete bool) error {
	r.mu.Lock()
	var credErr error
	if next {
		credErr = s.OnPayloadReceived()
	}
	fs := r.streams[s.ID]
	r.mu.Unlock()
	if credErr != nil {
		return credErr
	}

	if next && fs != nil && fs.inbound != nil {
		fs.inbound.push(PollValueResult(payload))
	}
	if complete {
		if fs != nil && fs.inbound != nil {
			fs.inbound.complete()
		}
		r.mu.Lock()
		s.MarkComplete()
		r.mu.Unlock()
		r.terminate(s.ID)
	}
	return nil
}

// deliverChannelValue feeds one inbound REQUEST_CHANNEL value (or its
// terminal) to whichever side's inbound Source this is — requester or
// responder, the wire shape is identical either way. The stream only
// terminates once both directions have closed, per Stream.Terminated.
func (r *RSocket) deliverChannelValue(s *stream.Stream, payload Payload, next, complete bool) error {
	r.mu.Lock()
	var credErr error
	if next {
		credErr = s.OnPayloadReceived()
	}
	fs := r.streams[s.ID]
	r.mu.Unlock()
	if credErr != nil {
		return credErr
	}

	if next && fs != nil && fs.inbound != nil {
		fs.inbound.push(PollValueResult(payload))
	}
	if complete {
		if fs != nil && fs.inbound != nil {
			fs.inbound.complete()
		}
		r.mu.Lock()
		s.CompleteRecv()
		terminated := s.Terminated()
		r.mu.Unlock()
		if terminated {
			r.terminate(s.ID)
		}
	}
	return nil
}
