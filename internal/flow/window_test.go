package flow_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GooDer/rsocket-go/internal/flow"
)

func TestWindowTakeConsumesCredit(t *testing.T) {
	w := flow.NewWindow(5)
	assert.True(t, w.Take(3))
	assert.EqualValues(t, 2, w.Available())
	assert.False(t, w.Take(3))
	assert.EqualValues(t, 2, w.Available(), "a failed Take must not change the balance")
}

func TestWindowAddAccumulates(t *testing.T) {
	w := flow.NewWindow(0)
	assert.True(t, w.Add(10))
	assert.True(t, w.Add(5))
	assert.EqualValues(t, 15, w.Available())
}

func TestWindowAddSaturatesInsteadOfOverflowing(t *testing.T) {
	w := flow.NewWindow(math.MaxInt32 - 1)
	assert.False(t, w.Add(10))
	assert.EqualValues(t, math.MaxInt32, w.Available())
}

func TestWindowExhausted(t *testing.T) {
	w := flow.NewWindow(1)
	assert.False(t, w.Exhausted())
	assert.True(t, w.Take(1))
	assert.True(t, w.Exhausted())
}
