package rsocket

import (
	"context"
	"sync"
	"time"

	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/stream"
)

// startResponder begins answering a peer-initiated request once its
// logical frame (possibly reassembled from fragments) is complete.
// Everything that can call into application code runs on its own
// goroutine, per Dispatch's "must not block" contract.
func (r *RSocket) startResponder(s *stream.Stream, fs *streamState, payload Payload, requesterComplete bool) error {
	switch fs.kind {
	case stream.KindFireAndForget:
		r.terminate(s.ID)
		go r.handler.FireAndForget(context.Background(), payload)

	case stream.KindRequestResponse:
		go r.runRequestResponse(s, payload)

	case stream.KindRequestStream:
		go r.runRequestStream(s, fs, payload)

	case stream.KindRequestChannel:
		fs.inbound = newBufferedSource()
		if requesterComplete {
			fs.inbound.complete()
			r.mu.Lock()
			s.CompleteRecv()
			r.mu.Unlock()
		}
		go r.runRequestChannel(s, fs, payload)
	}
	return nil
}

// runRequestResponse calls the application handler and answers with
// either a terminal PAYLOAD or an ERROR.
func (r *RSocket) runRequestResponse(s *stream.Stream, payload Payload) {
	ctx := context.Background()
	resp, err := r.handler.RequestResponse(ctx, payload)

	if _, _, ok := r.lookup(s.ID); !ok {
		return // CANCEL (or a connection close) already tore this stream down
	}

	if err != nil {
		_ = r.sendStreamTerminalError(ctx, s.ID, err)
	} else {
		_ = r.sendPayload(ctx, s.ID, resp, frame.FlagNext|frame.FlagComplete)
	}

	r.mu.Lock()
	_ = s.MarkAnswered()
	r.mu.Unlock()
	r.terminate(s.ID)
}

// runRequestStream calls the application handler for its outbound Source
// and pumps it against the credit the requester granted.
func (r *RSocket) runRequestStream(s *stream.Stream, fs *streamState, payload Payload) {
	source := r.handler.RequestStream(context.Background(), payload)
	pump := newOutboundPump(r, s, source, false)
	r.mu.Lock()
	fs.pump = pump
	r.mu.Unlock()
	pump.run()
}

// runRequestChannel calls the application handler, giving it the inbound
// Source fed by the requester's own outbound values, and pumps the
// handler's returned Source against credit the requester grants.
func (r *RSocket) runRequestChannel(s *stream.Stream, fs *streamState, payload Payload) {
	inbound := &wireCreditSource{r: r, s: s, buf: fs.inbound}
	outbound := r.handler.RequestChannel(context.Background(), payload, inbound)
	pump := newOutboundPump(r, s, outbound, true)
	r.mu.Lock()
	fs.pump = pump
	r.mu.Unlock()
	pump.run()
}

// outboundPump drives a Source (application-provided, or this package's
// own wireCreditSource-adjacent plumbing) against a stream's
// OutboundCredit, emitting PAYLOAD frames as credit allows. It backs the
// responder's production of REQUEST_STREAM values and either side's
// outbound half of a REQUEST_CHANNEL — both are "emit while credit lasts,
// block on Source.Poll's Pending otherwise" in exactly the same shape.
type outboundPump struct {
	r      *RSocket
	s      *stream.Stream
	source Source
	wakeCh chan struct{}

	closeOnce sync.Once
	doneCh    chan struct{}

	// channel is true for REQUEST_CHANNEL's outbound half, where reaching
	// Complete/Error only half-closes the stream (see Stream.CompleteSend);
	// false for REQUEST_STREAM, where it is the whole story.
	channel bool

	// granted is the credit already passed on to source via Request and
	// not yet spent on an emitted value; drainWhileCredited tops it up to
	// the stream's OutboundCredit before each Poll.
	granted int64
}

func newOutboundPump(r *RSocket, s *stream.Stream, source Source, channel bool) *outboundPump {
	return &outboundPump{
		r: r, s: s, source: source, channel: channel,
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
	}
}

// wake signals the pump to re-check credit and Poll again; called whenever
// REQUEST_N or the stream-initiating frame's InitialN adds credit.
func (p *outboundPump) wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// cancel stops the pump without sending anything further; called when the
// peer cancels or the connection reports a stream-level error.
func (p *outboundPump) cancel() {
	p.closeOnce.Do(func() { close(p.doneCh) })
}

// run blocks until the stream completes, errors, or is cancelled. Intended
// to be the whole body of its own goroutine.
func (p *outboundPump) run() {
	p.wake() // the InitialN credit granted at stream creation may already cover a value
	for {
		select {
		case <-p.doneCh:
			return
		case <-p.wakeCh:
		}
		if p.drainWhileCredited() {
			return
		}
	}
}

// drainWhileCredited polls the source and emits values until credit runs
// out (returns false, waiting for the next wake) or the stream reaches a
// terminal state (returns true).
func (p *outboundPump) drainWhileCredited() bool {
	for {
		select {
		case <-p.doneCh:
			return true
		default:
		}

		p.r.mu.Lock()
		exhausted := p.s.OutboundCredit == nil || p.s.OutboundCredit.Exhausted()
		var available int64
		if !exhausted {
			available = p.s.OutboundCredit.Available()
		}
		p.r.mu.Unlock()
		if exhausted {
			return false
		}
		if available > p.granted {
			p.source.Request(int(available - p.granted))
			p.granted = available
		}

		switch res := p.source.Poll(); res.Kind {
		case PollPending:
			time.Sleep(time.Millisecond)
		case PollValue:
			p.r.mu.Lock()
			err := p.s.Emit()
			p.r.mu.Unlock()
			if err != nil {
				p.r.mu.Lock()
				p.s.Close()
				p.r.mu.Unlock()
				p.r.terminate(p.s.ID)
				return true
			}
			p.granted--
			_ = p.r.sendPayload(context.Background(), p.s.ID, res.Value, frame.FlagNext)
		case PollComplete:
			_ = p.r.sendPayload(context.Background(), p.s.ID, Payload{}, frame.FlagComplete)
			p.finish()
			return true
		case PollError:
			_ = p.r.sendStreamTerminalError(context.Background(), p.s.ID, res.Err)
			p.finish()
			return true
		}
	}
}

func (p *outboundPump) finish() {
	if p.channel {
		p.r.mu.Lock()
		p.s.CompleteSend()
		terminated := p.s.Terminated()
		p.r.mu.Unlock()
		if terminated {
			p.r.terminate(p.s.ID)
		}
		return
	}
	p.r.mu.Lock()
	p.s.MarkComplete()
	p.r.mu.Unlock()
	p.r.terminate(p.s.ID)
}
