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

func TestWebSocketRoundTripsClientToServer(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	client := transport.NewWebSocket(a, true)
	server := transport.NewWebSocket(b, false)

	sent := []byte("setup frame bytes")
	go func() { _ = client.Send(context.Background(), sent) }()

	got, err := server.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestWebSocketRoundTripsServerToClient(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	client := transport.NewWebSocket(a, true)
	server := transport.NewWebSocket(b, false)

	sent := []byte("payload frame bytes")
	go func() { _ = server.Send(context.Background(), sent) }()

	got, err := client.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestWebSocketCloseSendsCloseFrame(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	client := transport.NewWebSocket(a, true)
	server := transport.NewWebSocket(b, false)

	done := make(chan error, 1)
	go func() {
		_, err := server.Recv(context.Background())
		done <- err
	}()

	require.NoError(t, client.Close("CONNECTION_CLOSE", "bye"))
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Recv did not observe the CLOSE frame")
	}
}
