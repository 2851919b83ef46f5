package transport

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawWSFrame builds one unmasked WebSocket frame header+payload by hand
// (payload capped at 125 bytes), to drive Recv's framing logic directly
// without going through Send, which never emits fragments or control
// frames itself.
func rawWSFrame(fin bool, op wsOpcode, payload []byte) []byte {
	finBit := byte(0)
	if fin {
		finBit = wsBitFin
	}
	buf := []byte{finBit | byte(op), byte(len(payload))}
	return append(buf, payload...)
}

func TestWebSocketReassemblesFragmentedMessage(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	receiver := NewWebSocket(b, false)

	go func() {
		_, _ = a.Write(rawWSFrame(false, wsOpBinary, []byte("hel")))
		_, _ = a.Write(rawWSFrame(true, wsOpContinuation, []byte("lo")))
	}()

	got, err := receiver.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

// TestWebSocketAnswersPingWithPongAndKeepsReading sends PING, drains the
// PONG reply concurrently (the reply would otherwise block Recv forever
// waiting for a reader on net.Pipe's unbuffered synchronous write), then
// sends a data frame and checks Recv still surfaces it.
func TestWebSocketAnswersPingWithPongAndKeepsReading(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	receiver := NewWebSocket(b, false)

	type result struct {
		msg []byte
		err error
	}
	recvDone := make(chan result, 1)
	go func() {
		msg, err := receiver.Recv(context.Background())
		recvDone <- result{msg, err}
	}()

	go func() { _, _ = a.Write(rawWSFrame(true, wsOpPing, []byte("ping-data"))) }()

	pongHeader := make([]byte, 2)
	_, err := io.ReadFull(a, pongHeader)
	require.NoError(t, err)
	assert.Equal(t, wsBitFin|byte(wsOpPong), pongHeader[0])
	assert.Equal(t, byte(len("ping-data")), pongHeader[1])
	pongPayload := make([]byte, pongHeader[1])
	_, err = io.ReadFull(a, pongPayload)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping-data"), pongPayload)

	_, _ = a.Write(rawWSFrame(true, wsOpBinary, []byte("payload")))

	res := <-recvDone
	require.NoError(t, res.err)
	assert.Equal(t, []byte("payload"), res.msg)
}
