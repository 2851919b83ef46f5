package rsocket_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GooDer/rsocket-go/transport"

	"github.com/GooDer/rsocket-go"
)

// memTransport is an in-memory transport.Transport double, the same shape
// internal/conn's own tests use: two ends wired front-to-back behave like
// one real duplex carrier, with no actual byte-stream carrier involved.
type memTransport struct {
	out     chan<- []byte
	in      <-chan []byte
	closeMu sync.Mutex
	closed  bool
}

func newMemPipe() (a, b *memTransport) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
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
	m.closed = true
	return nil
}

var _ transport.Transport = (*memTransport)(nil)

type pipeClosedErr struct{}

func (pipeClosedErr) Error() string { return "memTransport: pipe closed" }

var errClosedPipe error = pipeClosedErr{}

const testTimeout = 2 * time.Second

func dial(t *testing.T, handler rsocket.RequestHandler) (client, server *rsocket.RSocket) {
	t.Helper()
	srvTp, cliTp := newMemPipe()

	srvCfg := rsocket.DefaultConfig()
	srvCfg.Handler = handler

	cliCfg := rsocket.DefaultConfig()

	ctx := context.Background()
	server = rsocket.Accept(ctx, srvTp, srvCfg)
	client = rsocket.Connect(ctx, cliTp, cliCfg)
	return client, server
}

// echoHandler answers every pattern with a deterministic transform of the
// request, so tests can assert on content as well as shape.
type echoHandler struct {
	rsocket.UnimplementedHandler
	fnfCh chan rsocket.Payload
}

func (h *echoHandler) FireAndForget(ctx context.Context, p rsocket.Payload) {
	if h.fnfCh != nil {
		h.fnfCh <- p
	}
}

func (h *echoHandler) RequestResponse(ctx context.Context, p rsocket.Payload) (rsocket.Payload, error) {
	return rsocket.NewPayload(append([]byte("echo:"), p.Data()...)), nil
}

type intSource struct {
	mu   sync.Mutex
	next int
	max  int
	credit int
}

func (s *intSource) Request(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit += n
}

func (s *intSource) Poll() rsocket.PollResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= s.max {
		return rsocket.PollCompleteResult()
	}
	if s.credit <= 0 {
		return rsocket.PollPendingResult()
	}
	s.credit--
	s.next++
	return rsocket.PollValueResult(rsocket.NewPayload([]byte{byte(s.next)}))
}

func (h *echoHandler) RequestStream(ctx context.Context, p rsocket.Payload) rsocket.Source {
	return &intSource{max: int(p.Data()[0])}
}

func (h *echoHandler) RequestChannel(ctx context.Context, p rsocket.Payload, inbound rsocket.Source) rsocket.Source {
	out := &intSource{max: int(p.Data()[0])}
	inbound.Request(int(p.Data()[0]))
	return out
}

func TestRequestResponseRoundTrip(t *testing.T) {
	client, _ := dial(t, &echoHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	resp, err := client.RequestResponse(ctx, rsocket.NewPayload([]byte("hi")))
	require.NoError(t, err)
	assert.Equal(t, []byte("echo:hi"), resp.Data())
}

func TestFireAndForgetDelivers(t *testing.T) {
	fnfCh := make(chan rsocket.Payload, 1)
	client, _ := dial(t, &echoHandler{fnfCh: fnfCh})

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, client.FireAndForget(ctx, rsocket.NewPayload([]byte("fire"))))

	select {
	case p := <-fnfCh:
		assert.Equal(t, []byte("fire"), p.Data())
	case <-time.After(testTimeout):
		t.Fatal("handler never received the fire-and-forget payload")
	}
}

func TestRequestStreamDeliversAllValues(t *testing.T) {
	client, _ := dial(t, &echoHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	sub, err := client.RequestStream(ctx, rsocket.NewPayload([]byte{5}), 5)
	require.NoError(t, err)

	var got []byte
	deadline := time.Now().Add(testTimeout)
	for len(got) < 5 && time.Now().Before(deadline) {
		res := sub.Poll()
		switch res.Kind {
		case rsocket.PollValue:
			got = append(got, res.Value.Data()[0])
		case rsocket.PollPending:
			time.Sleep(time.Millisecond)
		case rsocket.PollComplete:
			t.Fatalf("stream completed early, got %d of 5 values", len(got))
		case rsocket.PollError:
			t.Fatalf("stream errored: %v", res.Err)
		}
	}
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
}

func TestRequestStreamCancelStopsDelivery(t *testing.T) {
	client, _ := dial(t, &echoHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	sub, err := client.RequestStream(ctx, rsocket.NewPayload([]byte{100}), 1)
	require.NoError(t, err)

	// Give the credited value time to arrive, then cancel; the connection
	// must not be disturbed by the early stop and still answers a new
	// request afterwards.
	time.Sleep(10 * time.Millisecond)
	sub.Cancel()

	resp, err := client.RequestResponse(ctx, rsocket.NewPayload([]byte("after")))
	require.NoError(t, err)
	assert.Equal(t, []byte("echo:after"), resp.Data())
}

func TestRequestRejectedByUnimplementedHandler(t *testing.T) {
	client, _ := dial(t, rsocket.UnimplementedHandler{})

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	_, err := client.RequestResponse(ctx, rsocket.NewPayload([]byte("hi")))
	require.Error(t, err)
}
