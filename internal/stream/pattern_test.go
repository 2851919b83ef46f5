package stream_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GooDer/rsocket-go/internal/stream"
)

func TestFireAndForgetTerminatesImmediately(t *testing.T) {
	s := stream.NewFireAndForget(1, stream.DirRequester)
	assert.True(t, s.Terminated())
}

func TestRequestResponseSingleTerminalEachSide(t *testing.T) {
	requester := stream.NewRequestResponse(1, stream.DirRequester)
	assert.False(t, requester.Terminated(), "requester awaits the answer before terminating")

	require.NoError(t, requester.MarkAnswered())
	assert.True(t, requester.Terminated())

	err := requester.MarkAnswered()
	require.Error(t, err, "a second terminal frame must be rejected")

	responder := stream.NewRequestResponse(2, stream.DirResponder)
	assert.False(t, responder.Terminated())
	require.NoError(t, responder.MarkAnswered())
	assert.True(t, responder.Terminated())
}

func TestRequestStreamCreditAccounting(t *testing.T) {
	responder := stream.NewRequestStream(3, stream.DirResponder, 2)
	require.NoError(t, responder.Emit())
	require.NoError(t, responder.Emit())
	err := responder.Emit()
	require.Error(t, err, "emitting beyond granted credit must fail")

	responder.OutboundCredit.Add(1)
	require.NoError(t, responder.Emit())

	requester := stream.NewRequestStream(3, stream.DirRequester, 2)
	require.NoError(t, requester.OnPayloadReceived())
	require.NoError(t, requester.OnPayloadReceived())
	err = requester.OnPayloadReceived()
	require.Error(t, err, "receiving beyond granted credit must fail")
}

func TestRequestStreamMarkComplete(t *testing.T) {
	s := stream.NewRequestStream(5, stream.DirResponder, 1)
	assert.False(t, s.Terminated())
	s.MarkComplete()
	assert.True(t, s.Terminated())
}

func TestRequestChannelIndependentDirections(t *testing.T) {
	requester := stream.NewRequestChannel(7, stream.DirRequester, 3)
	assert.False(t, requester.Terminated())

	requester.CompleteSend()
	assert.False(t, requester.Terminated(), "only one direction closed so far")

	requester.CompleteRecv()
	assert.True(t, requester.Terminated())
}

func TestRequestChannelCreditAccounting(t *testing.T) {
	responder := stream.NewRequestChannel(9, stream.DirResponder, 1)
	require.NoError(t, responder.Emit())
	err := responder.Emit()
	require.Error(t, err)

	responder.OutboundCredit.Add(5)
	require.NoError(t, responder.Emit())
}
