package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// maxFrameLength is the largest frame body the 24-bit length prefix can
// carry.
const maxFrameLength = 1<<24 - 1

// Stream adapts any byte-stream carrier (TCP, a TLS-wrapped net.Conn,
// anything io.ReadWriteCloser-shaped) into a Transport by prefixing every
// frame with a 24-bit big-endian length, per spec.md §4.B. Grounded on
// Jxck-go-spdy's binary.Read/binary.Write framing idiom in read.go/write.go,
// generalized from SPDY's 32-bit length+flags word to RSocket's bare 24-bit
// prefix.
type Stream struct {
	rwc io.ReadWriteCloser

	writeMu sync.Mutex
}

// NewStream wraps rwc. rwc is typically a net.Conn, already TLS-wrapped by
// the caller via WrapTLS if needed — this type never negotiates TLS itself.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	return &Stream{rwc: rwc}
}

// WrapTLS wraps conn for a TLS-secured stream transport. It only ever calls
// into crypto/tls — the same boundary the teacher's ConfigureServer draws
// around *tls.Config: accept the configuration, hand it to the standard
// library, implement none of the handshake ourselves. conf may be nil, in
// which case conn is returned unwrapped.
func WrapTLS(conn net.Conn, conf *tls.Config, isServer bool) net.Conn {
	if conf == nil {
		return conn
	}
	if isServer {
		return tls.Server(conn, conf)
	}
	return tls.Client(conn, conf)
}

// Send writes one length-prefixed frame. writeMu serializes callers in case
// something other than internal/conn's single event-loop goroutine ever
// calls Send directly (the Transport doc comment only promises the loop
// won't interleave with itself, not that nothing else can call in).
func (s *Stream) Send(ctx context.Context, frame []byte) error {
	if len(frame) > maxFrameLength {
		return errors.Errorf("rsocket: frame of %d bytes exceeds the 24-bit length prefix", len(frame))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var prefix [3]byte
	prefix[0] = byte(len(frame) >> 16)
	prefix[1] = byte(len(frame) >> 8)
	prefix[2] = byte(len(frame))
	if _, err := s.rwc.Write(prefix[:]); err != nil {
		return errors.Wrap(err, "rsocket: failed to write frame length prefix")
	}
	if _, err := s.rwc.Write(frame); err != nil {
		return errors.Wrap(err, "rsocket: failed to write frame body")
	}
	return nil
}

// Recv reads one length-prefixed frame. A plain io.ReadWriteCloser has no
// way to interrupt an in-flight Read when ctx is canceled; like the
// teacher's readFrames goroutine, the real unblocking mechanism is Close
// making the pending Read return an error, not ctx itself. ctx is still
// checked up front so a caller that already canceled doesn't block at all.
func (s *Stream) Recv(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var prefix [3]byte
	if _, err := io.ReadFull(s.rwc, prefix[:]); err != nil {
		return nil, errors.Wrap(err, "rsocket: failed to read frame length prefix")
	}
	n := int(prefix[0])<<16 | int(prefix[1])<<8 | int(prefix[2])
	body := make([]byte, n)
	if _, err := io.ReadFull(s.rwc, body); err != nil {
		return nil, errors.Wrap(err, "rsocket: failed to read frame body")
	}
	return body, nil
}

// Close tears down the underlying carrier. A bare stream transport has no
// wire-level mechanism of its own for code/reason — the caller is expected
// to have already written an ERROR frame carrying them (internal/conn does,
// via Connection.Close) before tearing down the transport.
func (s *Stream) Close(code, reason string) error {
	return s.rwc.Close()
}

var _ Transport = (*Stream)(nil)
