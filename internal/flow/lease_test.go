package flow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GooDer/rsocket-go/internal/flow"
)

func TestLeaseRejectsEverythingBeforeFirstGrant(t *testing.T) {
	var l flow.Lease
	now := time.Unix(0, 0)
	for i := 0; i < 100; i++ {
		assert.False(t, l.Allow(now), "an unarmed lease must reject until the first LEASE grant arrives")
	}
}

func TestLeaseConsumesRemainingRequests(t *testing.T) {
	var l flow.Lease
	now := time.Unix(0, 0)
	l.Grant(2, time.Minute, now)

	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now))
	assert.False(t, l.Allow(now), "third request must be rejected once the grant is exhausted")
}

func TestLeaseExpiresByDeadline(t *testing.T) {
	var l flow.Lease
	now := time.Unix(0, 0)
	l.Grant(10, time.Second, now)

	assert.True(t, l.Allow(now.Add(500*time.Millisecond)))
	assert.False(t, l.Allow(now.Add(2*time.Second)), "a request past the deadline must be rejected even with budget left")
}

func TestLeaseGrantReplacesPriorGrant(t *testing.T) {
	var l flow.Lease
	now := time.Unix(0, 0)
	l.Grant(1, time.Minute, now)
	l.Grant(5, time.Minute, now)

	assert.EqualValues(t, 5, l.Remaining(now))
}
