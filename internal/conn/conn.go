// Package conn implements the RSocket connection state machine: the SETUP
// handshake, KEEPALIVE liveness, LEASE-gated admission control, and the
// single serialized event loop that owns every stream on one connection.
//
// The control-flow idiom — one goroutine owns all mutable state, other
// goroutines only ever hand it work over channels, a select loop drives
// everything — is baranov1ch-http2/server.go's serverConn.serve() shape,
// generalized from HTTP/2's request/response frames to RSocket's four
// interaction patterns. Goroutine supervision uses golang.org/x/sync/errgroup
// in place of the teacher's bare doneServing channel, so the first goroutine
// to fail determines the connection's closing cause instead of silently
// leaking the others.
package conn

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/GooDer/rsocket-go/frame"
	"github.com/GooDer/rsocket-go/internal/flow"
	"github.com/GooDer/rsocket-go/internal/stream"
	"github.com/GooDer/rsocket-go/transport"
)

// Role identifies which side of the handshake this connection plays.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

// State is the connection-level state machine, per spec §4.E.
type State uint8

const (
	StateConnecting State = iota
	StateSettingUp
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateSettingUp:
		return "SETTING_UP"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the negotiable connection options from spec.md §6. Servers
// receive theirs in the inbound SETUP frame; clients supply theirs to build
// the outbound one.
type Config struct {
	KeepaliveInterval time.Duration
	MaxLifetime       time.Duration
	HonorLease        bool
	MetadataMIME      string
	DataMIME          string
	FragmentSize      int // 0 disables fragmentation
	ReassemblyMax     int // 0 means unbounded
	SetupMetadata     []byte
	SetupData         []byte
}

// Dispatcher receives every frame the connection state machine itself does
// not consume (SETUP/LEASE/KEEPALIVE/connection-level ERROR), already
// classified against the stream registry. It is supplied by the facade
// (rsocket package), which is the only layer with enough context to turn a
// REQUEST_* frame into application work — Connection only needs to know
// whether the dispatch succeeded or produced a Stream/ConnectionError.
//
// Dispatch is called synchronously from the serve loop, exactly as
// serverConn.serve calls sc.processFrame inline; implementations must not
// block on application code.
type Dispatcher interface {
	Dispatch(result stream.DispatchResult, f frame.Frame) error
}

// ConnectionError and StreamError are internal/stream's error taxonomy,
// aliased here so callers of this package never need to import
// internal/stream directly just to type-switch on connection errors.
type (
	ConnectionError = stream.ConnectionError
	StreamError     = stream.StreamError
)

// nowFunc is indirected so tests can control tombstone/lease timing without
// sleeping.
var nowFunc = time.Now

type sendRequest struct {
	frame  frame.Frame
	result chan error
}

// Connection is one RSocket connection: the SETUP/KEEPALIVE/LEASE/CLOSE
// state machine plus the stream registry it exclusively owns. All of its
// unexported, non-channel fields are touched only from serve's goroutine
// (guarded by loop), mirroring serverConn's serveG discipline.
type Connection struct {
	role Role
	cfg  Config
	tp   transport.Transport
	log  zerolog.Logger

	dispatcher Dispatcher

	loop  loopGuard
	state State

	// leaseMu guards lease/leasedOn: unlike the rest of Connection's
	// unexported fields, these two are also read from AllowRequest, which
	// the facade calls from whatever goroutine is about to emit a
	// request-initiating frame, not just from serve's own goroutine.
	leaseMu  sync.Mutex
	lease    flow.Lease
	leasedOn bool // true once SETUP negotiated honor_lease

	keepaliveDeadline deadline

	Registry *stream.Registry

	readFrameCh chan frame.Frame
	readErrCh   chan error
	sendCh      chan sendRequest
	doneServing chan struct{}

	closeErr error
}

// New builds a Connection ready to Serve. log defaults to zerolog.Nop() when
// the zero value is passed, matching serverConn.logf's fallback to the
// standard logger when hs.ErrorLog is nil.
func New(role Role, tp transport.Transport, cfg Config, dispatcher Dispatcher, log zerolog.Logger) *Connection {
	return &Connection{
		role:        role,
		cfg:         cfg,
		tp:          tp,
		log:         log,
		dispatcher:  dispatcher,
		Registry:    stream.NewRegistry(role == RoleClient),
		readFrameCh: make(chan frame.Frame),
		readErrCh:   make(chan error, 1),
		sendCh:      make(chan sendRequest),
		doneServing: make(chan struct{}),
	}
}

// Done is closed once Serve returns.
func (c *Connection) Done() <-chan struct{} { return c.doneServing }

// Err returns the error that ended the connection, if any, once Done is
// closed.
func (c *Connection) Err() error { return c.closeErr }

// Send enqueues an outbound frame and waits for it to reach the transport.
// Safe to call from any goroutine; the serve loop is the only writer of the
// transport itself, exactly as writeHeaderCh serializes HTTP/2 response
// headers through serverConn.serve.
func (c *Connection) Send(ctx context.Context, f frame.Frame) error {
	req := sendRequest{frame: f, result: make(chan error, 1)}
	select {
	case c.sendCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.doneServing:
		return errors.New("rsocket: connection closed")
	}
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs the connection until the transport errors, a connection-level
// protocol fault occurs, or ctx is done. It blocks until the connection is
// fully closed. Grounded on serverConn.serve: client-preface-equivalent
// handshake first (handleSetup here), then a select loop over inbound
// frames, outbound send requests, and the keepalive/lifetime timers.
func (c *Connection) Serve(ctx context.Context) error {
	c.loop = newLoopGuard()
	defer close(c.doneServing)
	defer c.tp.Close("", "")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readFrames(gctx) })

	if err := c.handshake(gctx); err != nil {
		cancel()
		_ = g.Wait()
		c.state = StateClosed
		c.closeErr = err
		return err
	}

	g.Go(func() error { return c.keepaliveLoop(gctx) })

	err := c.serveLoop(gctx)
	cancel()
	c.state = StateClosed
	gerr := g.Wait()
	if isBoringCloseErr(err) && gerr != nil {
		err = gerr
	}
	c.closeErr = err
	return err
}

// isBoringCloseErr reports whether err is just ctx cancellation rather than
// a substantive cause, so Serve can prefer whichever of serveLoop's error
// and the supervised goroutines' error actually explains why the
// connection ended. Named after serverConn.condlogf's "boring, expected
// errors" bucket.
func isBoringCloseErr(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// serveLoop is the connection's single event loop once SETUP has completed:
// every inbound frame, every outbound Send request, and the transport's
// terminal read error all funnel through this one select, exactly as
// serverConn.serve's select over writeHeaderCh/windowUpdateCh/readFrameCh
// serializes HTTP/2's equivalent events.
func (c *Connection) serveLoop(ctx context.Context) error {
	c.loop.check()
	c.state = StateActive
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-c.readErrCh:
			if pe, ok := err.(*frame.ProtocolError); ok {
				c.sendConnectionError(ConnectionError{Code: frame.ErrConnectionError, Msg: pe.Msg})
			}
			return errors.Wrap(err, "rsocket: transport closed")

		case req := <-c.sendCh:
			req.result <- c.writeFrame(req.frame)

		case f := <-c.readFrameCh:
			c.keepaliveDeadline.touch()
			if err := c.handleFrame(ctx, f); err != nil {
				if stop := c.handleLoopError(err); stop != nil {
					return stop
				}
			}
		}
	}
}

// handleFrame routes one inbound frame to the right piece of connection
// state. Connection-level frame types (SETUP, LEASE, KEEPALIVE, RESUME,
// RESUME_OK, connection-level ERROR, METADATA_PUSH) are handled here
// directly; everything else is classified against the registry and handed
// to the dispatcher, mirroring sc.processFrame's type switch generalized
// from HTTP/2's HEADERS/DATA/SETTINGS/PING/WINDOW_UPDATE set to RSocket's.
func (c *Connection) handleFrame(ctx context.Context, f frame.Frame) error {
	switch v := f.(type) {
	case *frame.Setup:
		return ConnectionError{Code: frame.ErrConnectionError, Msg: "duplicate SETUP on an already-established connection"}
	case *frame.Lease:
		return c.handleLease(v)
	case *frame.Keepalive:
		return c.handleKeepalive(ctx, v)
	case *frame.Resume, *frame.ResumeOK:
		return c.rejectResume()
	case *frame.ErrorFrame:
		if v.StreamID == 0 {
			if v.Code == frame.ErrConnectionClose {
				return c.handleConnectionClose(v)
			}
			return ConnectionError{Code: v.Code, Msg: "peer reported a connection-level error"}
		}
		return c.dispatchStreamFrame(v.StreamID, false, f)
	case *frame.MetadataPush:
		return c.dispatcher.Dispatch(stream.DispatchResult{Target: stream.DispatchConnection}, f)
	case *frame.Unknown:
		return nil // FlagIgnore was set, or Decode would have failed instead of returning this
	default:
		return c.dispatchStreamFrame(f.Header().StreamID, isRequestFrame(f), f)
	}
}

func (c *Connection) dispatchStreamFrame(streamID uint32, isRequest bool, f frame.Frame) error {
	result, err := c.Registry.Dispatch(streamID, isRequest)
	if err != nil {
		return err
	}
	switch result.Target {
	case stream.DispatchTombstoned:
		return nil
	case stream.DispatchUnknown:
		return StreamError{StreamID: streamID, Code: frame.ErrInvalid, Msg: "frame referenced an unknown stream"}
	default:
		return c.dispatcher.Dispatch(result, f)
	}
}

func isRequestFrame(f frame.Frame) bool {
	switch f.(type) {
	case *frame.RequestResponse, *frame.RequestFNF, *frame.RequestStream, *frame.RequestChannel:
		return true
	default:
		return false
	}
}

// handleLoopError turns an error returned while handling one frame into
// either a stream-level reset (serve keeps running) or a connection-level
// close (serve returns), per spec §7's propagation policy: connection
// errors always close the connection, stream errors terminate only the
// stream. Mirrors serverConn.serve's "switch ev := err.(type)" dispatch.
func (c *Connection) handleLoopError(err error) error {
	switch e := err.(type) {
	case StreamError:
		c.sendStreamError(e)
		c.Registry.Terminate(e.StreamID, nowFunc())
		return nil
	case ConnectionError:
		c.sendConnectionError(e)
		return e
	case errGracefulClose:
		return e
	default:
		return errors.Wrap(err, "rsocket: unhandled dispatch error")
	}
}

func (c *Connection) sendStreamError(e StreamError) {
	_ = c.writeFrame(&frame.ErrorFrame{StreamID: e.StreamID, Code: e.Code, Data: []byte(e.Msg)})
}

func (c *Connection) sendConnectionError(e ConnectionError) {
	_ = c.writeFrame(&frame.ErrorFrame{StreamID: 0, Code: e.Code, Data: []byte(e.Msg)})
}

func (c *Connection) rejectResume() error {
	c.sendConnectionError(ConnectionError{Code: frame.ErrRejectedResume, Msg: "resume is not supported"})
	return ConnectionError{Code: frame.ErrRejectedResume, Msg: "resume is not supported"}
}

// writeFrame encodes and writes f. Only ever called from the serve
// goroutine (directly, or via the sendCh request the loop itself services),
// matching serverConn's single-writer discipline.
func (c *Connection) writeFrame(f frame.Frame) error {
	c.loop.check()
	buf, err := frame.Encode(f)
	if err != nil {
		return errors.Wrap(err, "rsocket: failed to encode outbound frame")
	}
	if err := c.tp.Send(context.Background(), buf); err != nil {
		return errors.Wrap(err, "rsocket: failed to write outbound frame")
	}
	return nil
}

// readFrames runs on its own goroutine, decoding whole frames off the
// transport and handing them to serve. Mirrors serverConn.readFrames'
// read-then-signal shape, simplified since transport.Transport already
// delivers whole, delimited frame payloads (no Framer-reuse hazard to guard
// against with a processed handshake).
func (c *Connection) readFrames(ctx context.Context) error {
	for {
		raw, err := c.tp.Recv(ctx)
		if err != nil {
			select {
			case c.readErrCh <- err:
			case <-ctx.Done():
			}
			return err
		}
		f, err := frame.Decode(raw)
		if err != nil {
			select {
			case c.readErrCh <- err:
			case <-ctx.Done():
			}
			return err
		}
		select {
		case c.readFrameCh <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
