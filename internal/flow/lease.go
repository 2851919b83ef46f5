package flow

import "time"

// Lease tracks a single LEASE grant: a number of requests the responder
// has authorized, valid until ttl elapses. Unlike Window, a Lease never
// refills on its own — the peer must send a fresh LEASE frame, which
// replaces rather than adds to the current grant. This is why
// golang.org/x/time/rate's token bucket (continuous refill at a steady
// rate) was rejected for this role: a lease is a one-shot expiring
// allowance, not a rate, and modeling it as a rate limiter would let a
// connection grant itself implicit extra requests between LEASE frames
// that the peer never promised. See SPEC_FULL.md's DOMAIN STACK section.
type Lease struct {
	remaining uint32
	deadline  time.Time
	armed     bool
}

// Grant installs a new lease of n requests, valid until now+ttl. It
// replaces any lease currently in force.
func (l *Lease) Grant(n uint32, ttl time.Duration, now time.Time) {
	l.remaining = n
	l.deadline = now.Add(ttl)
	l.armed = true
}

// Allow reports whether one more request may be admitted under the
// current lease at time now, consuming one unit if so. Allow rejects until
// the first LEASE frame arms the lease (armed == false): per spec §4.E,
// once honor_lease is negotiated a requester "may issue no request-*
// frames until it has received a LEASE with positive requests and
// unexpired TTL" — there is no implicit allowance before the first grant.
// Callers where honor_lease was never negotiated at all must not reach
// Allow in the first place; see conn.Connection.AllowRequest's !leasedOn
// short-circuit.
func (l *Lease) Allow(now time.Time) bool {
	if !l.armed {
		return false
	}
	if now.After(l.deadline) || l.remaining == 0 {
		return false
	}
	l.remaining--
	return true
}

// Remaining reports the number of requests still permitted under the
// current lease, or 0 once expired or exhausted.
func (l *Lease) Remaining(now time.Time) uint32 {
	if !l.armed || now.After(l.deadline) {
		return 0
	}
	return l.remaining
}
