package stream

import "github.com/GooDer/rsocket-go/frame"

// IDAllocator hands out locally-initiated stream ids: odd for a client
// connection, even for a server connection, strictly increasing, and
// never reused within the connection's lifetime. This generalizes
// baranov1ch-http2/server.go's sc.maxStreamID monotonicity check (HTTP/2
// only ever has client-initiated odd ids from the server's point of view)
// to RSocket's symmetric odd-client/even-server parity rule.
type IDAllocator struct {
	next uint32
}

// NewIDAllocator returns an allocator for one side of a connection.
// clientSide selects odd ids (1, 3, 5, ...); the server side selects even
// ids (2, 4, 6, ...). Id 0 is reserved for the connection itself and is
// never allocated.
func NewIDAllocator(clientSide bool) *IDAllocator {
	if clientSide {
		return &IDAllocator{next: 1}
	}
	return &IDAllocator{next: 2}
}

// Next returns the next stream id to use for a locally-initiated stream,
// or an error if the 31-bit id space is exhausted.
func (a *IDAllocator) Next() (uint32, error) {
	if a.next > frame.MaxStreamID {
		return 0, ConnectionError{Code: frame.ErrConnectionError, Msg: "stream id space exhausted"}
	}
	id := a.next
	a.next += 2
	return id, nil
}

// IsClientInitiated reports whether id was allocated by a client-side
// allocator (odd), as opposed to a server-side one (even). Stream id 0 is
// neither.
func IsClientInitiated(id uint32) bool { return id != 0 && id%2 == 1 }
