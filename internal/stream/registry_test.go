package stream_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GooDer/rsocket-go/internal/stream"
)

func TestRegistryAllocateParity(t *testing.T) {
	clientReg := stream.NewRegistry(true)
	id1, err := clientReg.Allocate()
	require.NoError(t, err)
	id2, err := clientReg.Allocate()
	require.NoError(t, err)
	assert.True(t, stream.IsClientInitiated(id1))
	assert.True(t, stream.IsClientInitiated(id2))
	assert.Less(t, id1, id2)

	serverReg := stream.NewRegistry(false)
	sid1, err := serverReg.Allocate()
	require.NoError(t, err)
	assert.False(t, stream.IsClientInitiated(sid1))
}

func TestRegistryDispatchConnectionFrame(t *testing.T) {
	reg := stream.NewRegistry(false)
	result, err := reg.Dispatch(0, false)
	require.NoError(t, err)
	assert.Equal(t, stream.DispatchConnection, result.Target)
}

func TestRegistryDispatchKnownStream(t *testing.T) {
	reg := stream.NewRegistry(false)
	s := stream.NewFireAndForget(1, stream.DirResponder)
	reg.Add(s)

	result, err := reg.Dispatch(1, false)
	require.NoError(t, err)
	assert.Equal(t, stream.DispatchStream, result.Target)
	assert.Same(t, s, result.Stream)
}

func TestRegistryDispatchNewStreamFromPeer(t *testing.T) {
	// We are the server (clientSide=false); the peer (client) must use
	// odd stream ids.
	reg := stream.NewRegistry(false)

	result, err := reg.Dispatch(1, true)
	require.NoError(t, err)
	assert.Equal(t, stream.DispatchNewStream, result.Target)

	// Re-announcing the same id as if it were new again violates
	// monotonicity, since the registry already recorded it as the peer's
	// high-water mark.
	_, err = reg.Dispatch(1, true)
	require.Error(t, err)
}

func TestRegistryDispatchRejectsWrongParity(t *testing.T) {
	reg := stream.NewRegistry(false) // peer must use odd ids
	_, err := reg.Dispatch(2, true)
	require.Error(t, err)
	var connErr stream.ConnectionError
	assert.ErrorAs(t, err, &connErr)
}

func TestRegistryDispatchRejectsNonMonotonicID(t *testing.T) {
	reg := stream.NewRegistry(false)
	_, err := reg.Dispatch(5, true)
	require.NoError(t, err)

	_, err = reg.Dispatch(3, true)
	require.Error(t, err)
}

func TestRegistryDispatchUnknownNonRequestFrame(t *testing.T) {
	reg := stream.NewRegistry(false)
	result, err := reg.Dispatch(99, false)
	require.NoError(t, err)
	assert.Equal(t, stream.DispatchUnknown, result.Target)
}

func TestRegistryTombstoneSuppressesLateFrames(t *testing.T) {
	reg := stream.NewRegistry(false)
	s := stream.NewFireAndForget(3, stream.DirResponder)
	reg.Add(s)

	now := time.Unix(0, 0)
	reg.Terminate(3, now)

	result, err := reg.Dispatch(3, false)
	require.NoError(t, err)
	assert.Equal(t, stream.DispatchTombstoned, result.Target)

	reg.Sweep(now.Add(time.Hour), time.Minute)
	assert.False(t, reg.Tombstoned(3))
}
