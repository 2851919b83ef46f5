package conn

import (
	"time"

	"github.com/GooDer/rsocket-go/frame"
)

// handleLease applies an inbound LEASE to this side's outbound admission
// budget: the peer is granting us NumberOfRequests requests, valid until
// TTLMillis elapses, per spec §4.F. A LEASE that arrives without honor_lease
// having been negotiated in SETUP is ignored rather than treated as a
// protocol error — the sender may simply be running with lease enabled
// locally while this side opted out.
func (c *Connection) handleLease(l *frame.Lease) error {
	c.leaseMu.Lock()
	defer c.leaseMu.Unlock()
	if !c.leasedOn {
		return nil
	}
	c.lease.Grant(l.NumberOfRequests, time.Duration(l.TTLMillis)*time.Millisecond, nowFunc())
	return nil
}

// AllowRequest reports whether a new request-initiating frame
// (REQUEST_RESPONSE/REQUEST_FNF/REQUEST_STREAM/REQUEST_CHANNEL) may be sent
// right now. Always true when lease was never negotiated; once negotiated,
// delegates to the lease budget granted by the peer's most recent LEASE.
func (c *Connection) AllowRequest() bool {
	c.leaseMu.Lock()
	defer c.leaseMu.Unlock()
	if !c.leasedOn {
		return true
	}
	return c.lease.Allow(nowFunc())
}
