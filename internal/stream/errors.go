package stream

import (
	"fmt"

	"github.com/GooDer/rsocket-go/frame"
)

// ConnectionError reports a fault that invalidates the whole connection:
// a malformed frame, a setup failure, a missed keepalive deadline. The
// connection loop must send ERROR(Code) on stream 0 and close. Grounded
// verbatim on baranov1ch-http2/server.go's ConnectionError type and its
// use as an error value switched on in the serve loop.
type ConnectionError struct {
	Code frame.ErrorCode
	Msg  string
}

func (e ConnectionError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("rsocket: connection error: %s", e.Code)
	}
	return fmt.Sprintf("rsocket: connection error: %s: %s", e.Code, e.Msg)
}

// StreamError reports a fault confined to one stream: a frame on an
// unknown stream in an illegal state, a duplicate terminal frame, a
// credit underflow. The connection loop sends ERROR(Code) on StreamID
// and the stream terminates; the connection itself survives. Grounded
// verbatim on baranov1ch-http2/server.go's StreamError type.
type StreamError struct {
	StreamID uint32
	Code     frame.ErrorCode
	Msg      string
}

func (e StreamError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("rsocket: stream error on stream %d: %s", e.StreamID, e.Code)
	}
	return fmt.Sprintf("rsocket: stream error on stream %d: %s: %s", e.StreamID, e.Code, e.Msg)
}
