// Package transport adapts an RSocket connection onto a byte-duplex carrier:
// framing and delivering whole logical frames in and out, without knowing
// anything about the RSocket wire format itself (that's frame.Decode/Encode,
// called by internal/conn on the bytes this package hands back).
//
// Grounded on the real rsocket-go's internal/transport.Transport/Conn split
// (other_examples/530be26d_ReactiveSocket-reactivesocket-go), generalized
// from its io.ReadWriteCloser-backed single realization to two concrete
// carriers (stream.go, websocket.go) with different on-wire delimiting.
package transport

import "context"

// Transport is the minimal interface internal/conn needs from a carrier:
// send and receive one whole logical RSocket frame's bytes at a time, and
// close with a wire error code and human-readable reason. Both concrete
// realizations in this package (Stream, WebSocket) implement it.
type Transport interface {
	// Send writes one frame's encoded bytes. Implementations must not
	// interleave partial frames from concurrent callers; internal/conn
	// only ever calls Send from its own event-loop goroutine.
	Send(ctx context.Context, frame []byte) error

	// Recv blocks until one whole frame's bytes have been read, or ctx is
	// done, or the carrier is closed.
	Recv(ctx context.Context) ([]byte, error)

	// Close tears down the carrier, best-effort surfacing code/reason to
	// the peer first (a stream transport has no wire-level mechanism for
	// this beyond closing; a websocket transport sends a CLOSE control
	// frame carrying them).
	Close(code, reason string) error
}
