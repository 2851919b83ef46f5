package conn_test

import (
	"context"
	"sync"

	"github.com/GooDer/rsocket-go/transport"
)

// memTransport is a minimal transport.Transport double backed by channels,
// standing in for transport.Stream/WebSocket in tests that only care about
// internal/conn's state machine. Two memTransports wired front-to-back (via
// newMemPipe) behave like one real duplex carrier.
type memTransport struct {
	out     chan<- []byte
	in      <-chan []byte
	closeMu sync.Mutex
	closed  bool
}

// newMemPipe returns two ends of an in-memory duplex carrier: writes to a's
// Send arrive on b's Recv and vice versa.
func newMemPipe() (a, b *memTransport) {
	ab := make(chan []byte, 16)
	ba := make(chan []byte, 16)
	a = &memTransport{out: ab, in: ba}
	b = &memTransport{out: ba, in: ab}
	return a, b
}

func (m *memTransport) Send(ctx context.Context, frame []byte) error {
	buf := append([]byte(nil), frame...)
	select {
	case m.out <- buf:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case buf, ok := <-m.in:
		if !ok {
			return nil, errClosedPipe
		}
		return buf, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *memTransport) Close(code, reason string) error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return nil
}

var _ transport.Transport = (*memTransport)(nil)

type pipeClosedErr struct{}

func (pipeClosedErr) Error() string { return "memTransport: pipe closed" }

var errClosedPipe error = pipeClosedErr{}
