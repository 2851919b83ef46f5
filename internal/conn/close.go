package conn

import (
	"context"

	"github.com/GooDer/rsocket-go/frame"
)

// errGracefulClose distinguishes a peer-initiated CONNECTION_CLOSE from an
// actual fault: serveLoop still returns (Serve ends either way), but this
// value lets callers tell a clean shutdown apart from a protocol violation
// via errors.Is, instead of reading closeErr == nil as "still running".
type errGracefulClose struct{}

func (errGracefulClose) Error() string { return "rsocket: connection closed by peer" }

// ErrClosedByPeer is returned by Serve when the remote end asked
// to close gracefully with ERROR(CONNECTION_CLOSE) on stream 0.
var ErrClosedByPeer error = errGracefulClose{}

// handleConnectionClose answers the peer's ERROR(CONNECTION_CLOSE) on
// stream 0, per spec §4.E: "either peer may send ERROR(CONNECTION_CLOSE) on
// stream 0; both sides then drain and terminate the transport." There is
// nothing left to drain here — streams don't buffer past their credit — so
// this just signals serveLoop to stop.
func (c *Connection) handleConnectionClose(_ *frame.ErrorFrame) error {
	return errGracefulClose{}
}

// Close asks the peer to close gracefully and lets Serve's caller observe
// the resulting shutdown; it does not block for an acknowledgement, since
// the wire protocol defines none.
func (c *Connection) Close(ctx context.Context) error {
	return c.Send(ctx, &frame.ErrorFrame{StreamID: 0, Code: frame.ErrConnectionClose})
}
