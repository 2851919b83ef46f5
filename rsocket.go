// Package rsocket is the requester/responder facade: it wires
// internal/conn's connection state machine, internal/stream's per-pattern
// state machines, and frame's fragmentation/reassembly together behind the
// pull-based Source API spec §9 describes, and exposes Connect/Accept as
// the two ways to obtain a live connection.
package rsocket

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/conn"
	"github.com/GooDer/rsocket-go/internal/stream"
	"github.com/GooDer/rsocket-go/transport"
)

// RSocket is one live connection, acting as both requester and responder,
// per spec §4.G. Obtain one with Connect or Accept.
//
// internal/stream.Registry and internal/stream.Stream are documented as
// touched only from conn's own serve goroutine; this facade's pull-based
// Source pumps need to touch the same Stream/Registry state from their own
// goroutines (to drive outbound production without blocking Dispatch, per
// its own doc comment), so every Registry/Stream access anywhere in this
// package — inside Dispatch and inside a pump goroutine alike — holds mu.
type RSocket struct {
	c       *conn.Connection
	cfg     Config
	log     zerolog.Logger
	handler RequestHandler
	frag    frame.Fragmenter

	clientSide bool

	mu      sync.Mutex
	streams map[uint32]*streamState

	serveErrCh chan error
}

// streamState is the facade's per-stream bookkeeping, keyed by stream id
// in RSocket.streams alongside (not instead of) the connection's own
// Registry entry. Which fields are used depends on Kind and which side
// (requester/responder) this end plays.
type streamState struct {
	id   uint32
	kind stream.Kind

	// requester-side waiter for REQUEST_RESPONSE's single answer.
	responseCh chan responseResult

	// Source fed by inbound PAYLOAD frames: returned to the app by
	// RequestStream/RequestChannel on the requester side, and handed to
	// the RequestChannel handler on the responder side.
	inbound *bufferedSource

	// pump drives an app-provided (responder side) or requester-supplied
	// (REQUEST_CHANNEL's outbound half) Source against outbound credit,
	// woken whenever new credit arrives.
	pump *outboundPump
}

type responseResult struct {
	payload Payload
	err     error
}

// Connect establishes tp as the client side of the connection handshake
// and starts serving it in the background. The returned RSocket is usable
// immediately; requester calls block until the handshake and any
// in-flight request complete, and Done/Err observe the connection's
// eventual end.
func Connect(ctx context.Context, tp transport.Transport, cfg Config) *RSocket {
	return newRSocket(ctx, conn.RoleClient, tp, cfg)
}

// Accept runs the server side of the handshake over tp and starts serving
// the connection in the background, answering the peer's requests with
// cfg.Handler.
func Accept(ctx context.Context, tp transport.Transport, cfg Config) *RSocket {
	return newRSocket(ctx, conn.RoleServer, tp, cfg)
}

func newRSocket(ctx context.Context, role conn.Role, tp transport.Transport, cfg Config) *RSocket {
	r := &RSocket{
		cfg:        cfg,
		log:        cfg.Logger,
		handler:    cfg.handler(),
		frag:       frame.Fragmenter{MTU: cfg.FragmentSize},
		clientSide: role == conn.RoleClient,
		streams:    make(map[uint32]*streamState),
		serveErrCh: make(chan error, 1),
	}
	r.c = conn.New(role, tp, cfg.connConfig(), r, cfg.Logger)
	go func() { r.serveErrCh <- r.c.Serve(ctx) }()
	return r
}

// Done is closed once the connection has fully shut down.
func (r *RSocket) Done() <-chan struct{} { return r.c.Done() }

// Err returns the error that ended the connection, if any, once Done is
// closed.
func (r *RSocket) Err() error { return r.c.Err() }

// Close asks the peer to close gracefully; see conn.Connection.Close.
func (r *RSocket) Close(ctx context.Context) error { return r.c.Close(ctx) }

// AllowRequest reports whether the connection's current LEASE grant (if
// honor_lease was negotiated) permits one more requester-initiated
// request right now, per spec §4.F. Every requester method in requester.go
// checks this itself and answers ErrRejected locally, without sending
// anything, when it returns false; exported mainly so a caller can check
// before committing to building a request payload at all.
func (r *RSocket) AllowRequest() bool { return r.c.AllowRequest() }

func (r *RSocket) allocateID() (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c.Registry.Allocate()
}

func (r *RSocket) addStream(s *stream.Stream, fs *streamState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.Registry.Add(s)
	r.streams[s.ID] = fs
}

func (r *RSocket) terminate(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.c.Registry.Terminate(id, time.Now())
	delete(r.streams, id)
}

func (r *RSocket) lookup(id uint32) (*stream.Stream, *streamState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.c.Registry.Lookup(id)
	if !ok {
		return nil, nil, false
	}
	return s, r.streams[id], true
}

// Dispatch implements conn.Dispatcher. It never blocks on application
// code: request/response/stream/channel handlers run on their own
// goroutine, with results funneled back through Connection.Send (safe
// from any goroutine) and through this package's own streamState/mu.
func (r *RSocket) Dispatch(result stream.DispatchResult, f frame.Frame) error {
	switch result.Target {
	case stream.DispatchConnection:
		return r.dispatchConnection(f)
	case stream.DispatchNewStream:
		return r.dispatchNewStream(f)
	default: // stream.DispatchStream
		return r.dispatchKnownStream(result.Stream, f)
	}
}

func (r *RSocket) dispatchConnection(f frame.Frame) error {
	mp, ok := f.(*frame.MetadataPush)
	if !ok {
		return nil
	}
	go r.handler.MetadataPush(context.Background(), mp.Metadata)
	return nil
}

// dispatchNewStream builds the responder-side Stream for a peer-initiated
// request, feeds the initiating frame into its Reassembler, and — once a
// full logical frame is assembled, which for an unfragmented request is
// immediate — starts whichever handler goroutine answers it.
func (r *RSocket) dispatchNewStream(f frame.Frame) error {
	id := f.Header().StreamID
	follows := f.Header().Flags.Has(frame.FlagFollows)

	var s *stream.Stream
	var kind stream.Kind
	var metadata, data []byte
	var requesterComplete bool

	switch v := f.(type) {
	case *frame.RequestFNF:
		kind = stream.KindFireAndForget
		metadata, data = v.Metadata, v.Data
		s = stream.NewFireAndForget(id, stream.DirResponder)
	case *frame.RequestResponse:
		kind = stream.KindRequestResponse
		metadata, data = v.Metadata, v.Data
		s = stream.NewRequestResponse(id, stream.DirResponder)
	case *frame.RequestStream:
		kind = stream.KindRequestStream
		metadata, data = v.Metadata, v.Data
		s = stream.NewRequestStream(id, stream.DirResponder, v.InitialN)
	case *frame.RequestChannel:
		kind = stream.KindRequestChannel
		metadata, data = v.Metadata, v.Data
		requesterComplete = v.Complete
		s = stream.NewRequestChannel(id, stream.DirResponder, v.InitialN)
	default:
		return stream.StreamError{StreamID: id, Code: frame.ErrInvalid, Msg: "unexpected frame type introducing a new stream"}
	}

	// Lease admission, per spec §4.F: honored symmetrically with the
	// requester-side check in requester.go — the responder independently
	// enforces the same budget rather than trusting the peer's own
	// bookkeeping. Rejected before the stream is ever registered, so no
	// responder handler runs and no Registry/streamState cleanup is needed.
	if !r.AllowRequest() {
		return stream.StreamError{StreamID: id, Code: frame.ErrRejected, Msg: "lease exhausted"}
	}

	s.Reassembly.Max = r.cfg.ReassemblyMax
	fs := &streamState{id: id, kind: kind}
	r.addStream(s, fs)

	r.mu.Lock()
	outMeta, outData, done, err := s.Reassembly.Add(metadata, data, follows)
	r.mu.Unlock()
	if err != nil {
		return stream.ConnectionError{Code: frame.ErrConnectionError, Msg: err.Error()}
	}
	if !done {
		if kind == stream.KindRequestChannel && requesterComplete {
			r.mu.Lock()
			s.CompleteRecv()
			r.mu.Unlock()
		}
		return nil
	}

	payload := payloadFrom(outData, outMeta)
	return r.startResponder(s, fs, payload, requesterComplete)
}

// payloadFrom builds a Payload from reassembled data/metadata. Whether the
// logical frame carried metadata at all is approximated as "metadata is
// non-empty" — the Reassembler (see frame.Reassembler.Add) only tracks
// accumulated bytes, not a separate has-metadata bit, so a frame with a
// present-but-zero-length metadata section is indistinguishable from one
// with none; no interaction pattern in this module ever sends one.
func payloadFrom(data, metadata []byte) Payload {
	if len(metadata) == 0 {
		return NewPayload(data)
	}
	return NewPayloadWithMetadata(data, metadata)
}

// sendFragmented splits p across one or more wire frames via r.frag and
// sends each in order. headType/fixedPrefix matter only for the first
// frame of a stream-initiating request; ordinary PAYLOAD emission (see
// sendPayload) passes TypePayload and no prefix.
func (r *RSocket) sendFragmented(ctx context.Context, id uint32, headType frame.Type, fixedPrefix []byte, p Payload, finalFlags frame.Flags) error {
	metadata, hasMeta := p.Metadata()
	frames, err := r.frag.Split(id, headType, fixedPrefix, metadata, hasMeta, p.Data(), finalFlags)
	if err != nil {
		return err
	}
	for _, fr := range frames {
		if err := r.c.Send(ctx, fr); err != nil {
			return err
		}
	}
	return nil
}

func (r *RSocket) sendPayload(ctx context.Context, id uint32, p Payload, finalFlags frame.Flags) error {
	return r.sendFragmented(ctx, id, frame.TypePayload, nil, p, finalFlags)
}

// sendStreamTerminalError answers a stream with ERROR, choosing REJECTED
// over APPLICATION_ERROR when the handler's error is (or wraps) ErrRejected.
func (r *RSocket) sendStreamTerminalError(ctx context.Context, id uint32, err error) error {
	code := frame.ErrApplicationError
	if errors.Is(err, ErrRejected) {
		code = frame.ErrRejected
	}
	return r.c.Send(ctx, &frame.ErrorFrame{StreamID: id, Code: code, Data: []byte(err.Error())})
}

// cancelStream sends CANCEL and tombstones id locally; used when a
// requester abandons a stream via ctx cancellation or an explicit Cancel.
func (r *RSocket) cancelStream(id uint32) {
	_ = r.c.Send(context.Background(), &frame.Cancel{StreamID: id})
	r.terminate(id)
}

func uint32BE(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}
