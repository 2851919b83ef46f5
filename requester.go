package rsocket

import (
	"context"
	"sync"

	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/stream"
)

// FireAndForget sends payload as a REQUEST_FNF. There is no response to
// wait for, successful or not, per spec §4.D.
func (r *RSocket) FireAndForget(ctx context.Context, payload Payload) error {
	if !r.AllowRequest() {
		return ErrRejected
	}
	id, err := r.allocateID()
	if err != nil {
		return err
	}
	if err := r.sendFragmented(ctx, id, frame.TypeRequestFNF, nil, payload, 0); err != nil {
		return err
	}
	// Tombstone id locally: this side never registered it with Registry,
	// so without this an ERROR the responder sends on it anyway (legal,
	// ignorable per spec §4.D) would otherwise read back as an unknown
	// stream and draw a wasted StreamError reply.
	r.terminate(id)
	return nil
}

// MetadataPush sends a connection-level METADATA_PUSH. There is no stream
// and no response.
func (r *RSocket) MetadataPush(ctx context.Context, metadata []byte) error {
	return r.c.Send(ctx, &frame.MetadataPush{Metadata: metadata})
}

// RequestResponse sends payload as a REQUEST_RESPONSE and blocks for the
// single answer, an error, ctx's cancellation, or the connection's own
// end, whichever comes first.
func (r *RSocket) RequestResponse(ctx context.Context, payload Payload) (Payload, error) {
	if !r.AllowRequest() {
		return Payload{}, ErrRejected
	}
	id, err := r.allocateID()
	if err != nil {
		return Payload{}, err
	}
	s := stream.NewRequestResponse(id, stream.DirRequester)
	fs := &streamState{id: id, kind: stream.KindRequestResponse, responseCh: make(chan responseResult, 1)}
	r.addStream(s, fs)

	if err := r.sendFragmented(ctx, id, frame.TypeRequestResponse, nil, payload, 0); err != nil {
		r.terminate(id)
		return Payload{}, err
	}

	select {
	case res := <-fs.responseCh:
		return res.payload, res.err
	case <-ctx.Done():
		r.cancelStream(id)
		return Payload{}, ctx.Err()
	case <-r.c.Done():
		return Payload{}, r.c.Err()
	}
}

// RequestStream sends payload as a REQUEST_STREAM granting the responder
// initialRequestN units of credit up front, and returns a Source over the
// resulting values. Call the Source's Request to grant more credit later
// (every call after this method sends a REQUEST_N); call its Cancel to
// abandon the stream early.
func (r *RSocket) RequestStream(ctx context.Context, payload Payload, initialRequestN int) (*StreamSubscription, error) {
	if !r.AllowRequest() {
		return nil, ErrRejected
	}
	id, err := r.allocateID()
	if err != nil {
		return nil, err
	}
	s := stream.NewRequestStream(id, stream.DirRequester, uint32(initialRequestN))
	fs := &streamState{id: id, kind: stream.KindRequestStream, inbound: newBufferedSource()}
	r.addStream(s, fs)

	prefix := uint32BE(uint32(initialRequestN))
	if err := r.sendFragmented(ctx, id, frame.TypeRequestStream, prefix, payload, 0); err != nil {
		r.terminate(id)
		return nil, err
	}

	src := &wireCreditSource{r: r, s: s, buf: fs.inbound}
	return &StreamSubscription{Source: src, cancel: func() { r.cancelStream(id) }}, nil
}

// RequestChannel sends payload as a REQUEST_CHANNEL granting the responder
// initialRequestN units of credit up front, pumps outbound against
// whatever credit the responder grants in return, and returns a Source
// over the responder's inbound values — symmetric with RequestStream.
func (r *RSocket) RequestChannel(ctx context.Context, payload Payload, initialRequestN int, outbound Source) (*StreamSubscription, error) {
	if !r.AllowRequest() {
		return nil, ErrRejected
	}
	id, err := r.allocateID()
	if err != nil {
		return nil, err
	}
	s := stream.NewRequestChannel(id, stream.DirRequester, uint32(initialRequestN))
	fs := &streamState{id: id, kind: stream.KindRequestChannel, inbound: newBufferedSource()}
	r.addStream(s, fs)

	prefix := uint32BE(uint32(initialRequestN))
	if err := r.sendFragmented(ctx, id, frame.TypeRequestChannel, prefix, payload, 0); err != nil {
		r.terminate(id)
		return nil, err
	}

	pump := newOutboundPump(r, s, outbound, true)
	r.mu.Lock()
	fs.pump = pump
	r.mu.Unlock()
	go pump.run()

	src := &wireCreditSource{r: r, s: s, buf: fs.inbound}
	return &StreamSubscription{Source: src, cancel: func() { r.cancelStream(id) }}, nil
}

// StreamSubscription is what a requester gets back from RequestStream or
// RequestChannel: a Source over inbound values, plus Cancel to abandon the
// stream before it runs to completion on its own.
type StreamSubscription struct {
	Source
	cancel func()
}

// Cancel sends CANCEL and stops delivering further values.
func (sub *StreamSubscription) Cancel() { sub.cancel() }

// wireCreditSource is the Source backing a requester's StreamSubscription
// and the inbound Source a responder's RequestChannel handler receives:
// Request both grants n units of wire credit to the peer (a REQUEST_N
// frame) and records it on the stream's own InboundCredit window, so
// OnPayloadReceived's bookkeeping (see internal/stream) stays consistent
// with what was actually promised over the wire; Poll drains values
// Dispatch has already buffered as they arrived.
type wireCreditSource struct {
	r   *RSocket
	s   *stream.Stream
	buf *bufferedSource
}

func (c *wireCreditSource) Request(n int) {
	if n <= 0 {
		return
	}
	c.r.mu.Lock()
	if c.s.InboundCredit != nil {
		c.s.InboundCredit.Add(uint32(n))
	}
	c.r.mu.Unlock()
	_ = c.r.c.Send(context.Background(), &frame.RequestN{StreamID: c.s.ID, N: uint32(n)})
}

func (c *wireCreditSource) Poll() PollResult { return c.buf.Poll() }

// bufferedSource is a Source fed by Dispatch (push/complete/fail) and
// drained by whichever goroutine holds the consuming end — the
// application's RequestChannel handler, or a requester's
// StreamSubscription — via Poll. Dispatch never blocks on it: push just
// appends, bounded in practice by how much credit was ever granted over
// the wire (see Stream.InboundCredit).
type bufferedSource struct {
	mu   sync.Mutex
	buf  []PollResult
	done bool
}

func newBufferedSource() *bufferedSource { return &bufferedSource{} }

func (b *bufferedSource) push(res PollResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.buf = append(b.buf, res)
}

func (b *bufferedSource) complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.buf = append(b.buf, PollCompleteResult())
	b.done = true
}

func (b *bufferedSource) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.buf = append(b.buf, PollErrorResult(err))
	b.done = true
}

// Request is a no-op: credit for this side's inbound PAYLOAD values is
// granted over the wire by the wireCreditSource wrapping this buffer (on
// the requester side and on a responder's REQUEST_CHANNEL inbound side
// alike) — never by this particular Source value.
func (b *bufferedSource) Request(int) {}

func (b *bufferedSource) Poll() PollResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return PollPendingResult()
	}
	res := b.buf[0]
	b.buf = b.buf[1:]
	return res
}
