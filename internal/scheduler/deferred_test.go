package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeferredRuns(t *testing.T) {
	var d Deferred
	var calls atomic.Int32

	d.Schedule(5*time.Millisecond, func() { calls.Add(1) })
	assert.True(t, d.Pending())

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return !d.Pending() }, time.Second, time.Millisecond)
}

func TestDeferredCancel(t *testing.T) {
	var d Deferred
	var calls atomic.Int32

	d.Schedule(20*time.Millisecond, func() { calls.Add(1) })
	assert.True(t, d.Cancel())
	assert.False(t, d.Pending())
	assert.False(t, d.Cancel())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDeferredReschedulingReplaces(t *testing.T) {
	var d Deferred
	var first, second atomic.Int32

	d.Schedule(20*time.Millisecond, func() { first.Add(1) })
	d.Schedule(5*time.Millisecond, func() { second.Add(1) })

	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}
