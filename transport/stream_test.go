package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GooDer/rsocket-go/transport"
)

func TestStreamRoundTripsFrames(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	left := transport.NewStream(a)
	right := transport.NewStream(b)

	sent := []byte("hello, rsocket")
	go func() {
		_ = left.Send(context.Background(), sent)
	}()

	got, err := right.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestStreamRejectsOversizedFrame(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	s := transport.NewStream(a)
	err := s.Send(context.Background(), make([]byte, 1<<24))
	require.Error(t, err)
}

func TestStreamRecvHonorsAlreadyCanceledContext(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	s := transport.NewStream(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Recv(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStreamCloseUnblocksPendingRecv(t *testing.T) {
	a, b := net.Pipe()
	left := transport.NewStream(a)

	done := make(chan error, 1)
	go func() {
		_, err := left.Recv(context.Background())
		done <- err
	}()

	require.NoError(t, a.Close())
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
	_ = b.Close()
}
