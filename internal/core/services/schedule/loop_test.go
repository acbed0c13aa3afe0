package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardRecoversPanic(t *testing.T) {
	ok := Guard("boom", func() { panic("bad tick") })
	assert.False(t, ok)

	ok = Guard("fine", func() {})
	assert.True(t, ok)
}

func TestEveryKeepsRunningAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32

	var g Group
	g.Go(ctx, "flaky", 5*time.Millisecond, true, func(context.Context) {
		if ticks.Add(1) == 1 {
			panic("first tick fails")
		}
	})

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	g.Wait()
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		Every(ctx, "idle", time.Hour, false, func(context.Context) { t.Error("must not run") })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
