package rtos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickDecrementsOnlyDelayedTasks(t *testing.T) {
	k := newTestKernel()

	ready, err := k.CreateTask("Ready", 1, func(k *Kernel, self *TCB) {
		for {
			k.DelayTask(1000)
		}
	})
	require.NoError(t, err)

	k.Start()

	require.Eventually(t, func() bool {
		return ready.Status() == StatusDelayed
	}, 2*time.Second, 5*time.Millisecond)

	// Ready has delayed itself for 1000 ticks; drive a handful of ticks
	// and confirm the idle task (never Delayed) is unaffected while
	// Ready's own countdown is what's moving.
	for i := 0; i < 3; i++ {
		k.Tick()
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	require.Equal(t, uint16(997), ready.delayUnits)
	require.Equal(t, uint16(0), k.idle.delayUnits)
	require.NotEqual(t, StatusDelayed, k.idle.status)
}

func TestManualClockRunIsNoOp(t *testing.T) {
	k := newTestKernel()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		ManualClock{}.Run(k, stop)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ManualClock.Run did not return immediately")
	}
}

func TestTickerClockDrivesTicks(t *testing.T) {
	k := newTestKernel()

	delayed, err := k.CreateTask("Delayed", 1, func(k *Kernel, self *TCB) {
		k.DelayTask(2)
	})
	require.NoError(t, err)

	k.Start()

	require.Eventually(t, func() bool {
		return delayed.Status() == StatusDelayed
	}, time.Second, 5*time.Millisecond)

	k.RunClock(TickerClock{Period: time.Millisecond})
	defer k.StopClock()

	require.Eventually(t, func() bool {
		return delayed.Status() != StatusDelayed
	}, time.Second, 5*time.Millisecond)
}

func TestRunClockIsIdempotentUntilStopped(t *testing.T) {
	k := newTestKernel()
	k.Start()

	k.RunClock(TickerClock{Period: time.Millisecond})
	k.RunClock(TickerClock{Period: time.Millisecond}) // second call must be a no-op
	k.StopClock()
	k.StopClock() // must not panic on an already-stopped clock
}
