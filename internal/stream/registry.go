package stream

import (
	"time"

	"github.com/GooDer/rsocket-go/frame"
)

// Registry maps stream id to per-stream state, allocates ids for
// locally-initiated streams, and classifies inbound frames per spec
// §4.C's routing rules. Grounded on baranov1ch-http2/server.go's
// sc.streams map[uint32]*stream plus its id-parity/reuse checks against
// sc.maxStreamID, generalized from HTTP/2's client-only-odd rule to
// RSocket's symmetric odd-client/even-server parity.
type Registry struct {
	clientSide bool
	ids        *IDAllocator
	streams    map[uint32]*Stream
	tombstones map[uint32]time.Time
	maxPeerID  uint32
}

// NewRegistry returns a registry for one side of a connection. clientSide
// selects the odd/even id space this side allocates from locally; the
// peer is assumed to allocate from the other parity.
func NewRegistry(clientSide bool) *Registry {
	return &Registry{
		clientSide: clientSide,
		ids:        NewIDAllocator(clientSide),
		streams:    make(map[uint32]*Stream),
		tombstones: make(map[uint32]time.Time),
	}
}

// Allocate reserves the next locally-initiated stream id.
func (r *Registry) Allocate() (uint32, error) { return r.ids.Next() }

// Add registers s under its own ID.
func (r *Registry) Add(s *Stream) { r.streams[s.ID] = s }

// Lookup returns the stream registered under id, if any.
func (r *Registry) Lookup(id uint32) (*Stream, bool) {
	s, ok := r.streams[id]
	return s, ok
}

// Tombstoned reports whether id belongs to a stream that terminated
// recently enough to still be in the grace window (see Sweep), so a late
// CANCEL/REQUEST_N referencing it can be dropped rather than treated as a
// new-stream indicator.
func (r *Registry) Tombstoned(id uint32) bool {
	_, ok := r.tombstones[id]
	return ok
}

// Terminate removes id from the live set and tombstones it, per spec
// §4.C.
func (r *Registry) Terminate(id uint32, now time.Time) {
	delete(r.streams, id)
	r.tombstones[id] = now
}

// Sweep clears tombstones older than horizon. No code in this module
// calls Sweep, so without an explicit call a tombstone stays in place
// until the Registry is discarded along with its connection.
func (r *Registry) Sweep(now time.Time, horizon time.Duration) {
	for id, at := range r.tombstones {
		if now.Sub(at) >= horizon {
			delete(r.tombstones, id)
		}
	}
}

// DispatchTarget classifies where an inbound frame's stream id routes to.
type DispatchTarget uint8

const (
	// DispatchConnection is stream id 0: route to the connection state
	// machine, not any per-stream one.
	DispatchConnection DispatchTarget = iota
	// DispatchStream is a known, live stream id.
	DispatchStream
	// DispatchNewStream is an unknown id carried on a request-type frame:
	// the caller should create a new responder-side stream.
	DispatchNewStream
	// DispatchTombstoned is a recently-terminated id: drop silently.
	DispatchTombstoned
	// DispatchUnknown is an unknown id on a non-request, non-metadata
	// frame: the caller must answer ERROR(INVALID) and drop.
	DispatchUnknown
)

// DispatchResult is the outcome of classifying one inbound frame.
type DispatchResult struct {
	Target DispatchTarget
	Stream *Stream
}

// Dispatch classifies id against the registry's current state. Set
// isRequestFrame for REQUEST_RESPONSE/REQUEST_FNF/REQUEST_STREAM/
// REQUEST_CHANNEL frames, which are the only ones allowed to introduce a
// new stream. Returns a ConnectionError if id violates the parity or
// monotonicity rule for a peer-initiated stream.
func (r *Registry) Dispatch(id uint32, isRequestFrame bool) (DispatchResult, error) {
	if id == 0 {
		return DispatchResult{Target: DispatchConnection}, nil
	}
	if s, ok := r.streams[id]; ok {
		return DispatchResult{Target: DispatchStream, Stream: s}, nil
	}
	if r.Tombstoned(id) {
		return DispatchResult{Target: DispatchTombstoned}, nil
	}
	if !isRequestFrame {
		return DispatchResult{Target: DispatchUnknown}, nil
	}

	peerIsClient := !r.clientSide
	if IsClientInitiated(id) != peerIsClient {
		return DispatchResult{}, ConnectionError{Code: frame.ErrConnectionError, Msg: "peer used a stream id of the wrong parity"}
	}
	if id <= r.maxPeerID {
		return DispatchResult{}, ConnectionError{Code: frame.ErrConnectionError, Msg: "peer reused or decreased a stream id"}
	}
	r.maxPeerID = id
	return DispatchResult{Target: DispatchNewStream}, nil
}
