// Package flow implements the two admission-control mechanisms a
// connection and its streams use to bound how much a peer can send:
// per-stream request-N credit windows, and the optional connection-wide
// lease budget.
package flow

import "math"

// Window is a saturating, non-negative credit counter: the requester side
// of a stream grants N additional items with REQUEST_N, and the responder
// side takes one unit of credit per PAYLOAD(N=1) it emits. This mirrors
// the shape of baranov1ch-http2/server.go's *flow type (newFlow(initial),
// flow.add(delta) bool) generalized from HTTP/2 byte-windows to RSocket's
// request-count windows: both are non-negative counters where growth
// saturates at int32 max rather than wrapping, and taking more than is
// available is the caller's bug, not the window's problem.
type Window struct {
	available int64
}

// NewWindow returns a Window initialized to n units of credit.
func NewWindow(n uint32) *Window {
	return &Window{available: int64(n)}
}

// Add grants n additional units of credit, saturating at MaxRequestN
// rather than overflowing. Reports false if n would have overflowed an
// int32, mirroring the teacher's flow.add overflow signal.
func (w *Window) Add(n uint32) bool {
	next := w.available + int64(n)
	if next > math.MaxInt32 {
		w.available = math.MaxInt32
		return false
	}
	w.available = next
	return true
}

// Take consumes n units of credit. Reports false if fewer than n units
// are available, in which case the window is left unchanged.
func (w *Window) Take(n uint32) bool {
	if int64(n) > w.available {
		return false
	}
	w.available -= int64(n)
	return true
}

// Available returns the current credit balance.
func (w *Window) Available() int64 { return w.available }

// Exhausted reports whether no credit remains.
func (w *Window) Exhausted() bool { return w.available <= 0 }
