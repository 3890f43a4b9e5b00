package scene

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

type atomicSurface struct {
	redraws atomic.Int32
}

func (s *atomicSurface) RequestRedraw() { s.redraws.Add(1) }

func startLoop(t *testing.T, c *Controller, depth int) (*Loop, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(c, depth)
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop, cancel
}

func TestLoop_DoReturnsResult(t *testing.T) {
	surface := &atomicSurface{}
	c := NewController(&fakeLoader{docs: map[string]*fakeDoc{"pump.svg": pumpDoc()}}, fakeFactory{}, surface, &recordingReporter{}, Options{})
	loop, _ := startLoop(t, c, 8)

	err := loop.Do(context.Background(), func(c *Controller) error { return c.Load("pump.svg") })
	require.NoError(t, err)

	var title string
	require.NoError(t, loop.Do(context.Background(), func(c *Controller) error {
		title = c.Title()
		return nil
	}))
	assert.Equal(t, "Pump station", title)

	sentinel := errors.New("boom")
	assert.ErrorIs(t, loop.Do(context.Background(), func(*Controller) error { return sentinel }), sentinel)
}

func TestLoop_BatchedMutationsRedrawOnce(t *testing.T) {
	surface := &atomicSurface{}
	c := NewController(&fakeLoader{docs: map[string]*fakeDoc{"pump.svg": pumpDoc()}}, fakeFactory{}, surface, &recordingReporter{}, Options{})
	require.NoError(t, c.Load("pump.svg"))
	surface.redraws.Store(0)

	// Queue the whole batch before the loop starts so it is drained in one go.
	loop := NewLoop(c, 16)
	for i := 0; i < 5; i++ {
		on := i%2 == 0
		require.True(t, loop.Post(func(c *Controller) {
			c.UpdateStatus(telemetry.Address{Channel: 1, RTU: 1, Point: 5}, telemetry.StatusUpdate{On: &on})
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	require.NoError(t, loop.Do(ctx, func(*Controller) error { return nil }))
	var on bool
	require.NoError(t, loop.Do(ctx, func(c *Controller) error {
		on = c.IsStatusOn(0)
		return nil
	}))
	assert.Equal(t, int32(1), surface.redraws.Load())
	assert.True(t, on)
}

func TestLoop_NoMutationNoRedraw(t *testing.T) {
	surface := &atomicSurface{}
	c := NewController(&fakeLoader{docs: map[string]*fakeDoc{"pump.svg": pumpDoc()}}, fakeFactory{}, surface, &recordingReporter{}, Options{})
	require.NoError(t, c.Load("pump.svg"))
	surface.redraws.Store(0)
	loop, _ := startLoop(t, c, 4)

	require.NoError(t, loop.Do(context.Background(), func(c *Controller) error {
		c.UpdateStatus(telemetry.Address{Channel: 7, RTU: 7, Point: 7}, telemetry.StatusUpdate{On: boolPtr(true)})
		return nil
	}))

	assert.Equal(t, int32(0), surface.redraws.Load())
}

func TestLoop_RecoversPanickingAction(t *testing.T) {
	reporter := &recordingReporter{}
	c := NewController(&fakeLoader{}, fakeFactory{}, &atomicSurface{}, reporter, Options{})
	loop, _ := startLoop(t, c, 4)

	require.True(t, loop.Post(func(*Controller) { panic("bad action") }))
	require.NoError(t, loop.Do(context.Background(), func(*Controller) error { return nil }))

	var msg string
	require.NoError(t, loop.Do(context.Background(), func(c *Controller) error {
		msg = c.LastError()
		return nil
	}))
	assert.Contains(t, msg, "bad action")
}

func TestLoop_DoReturnsPanicAsError(t *testing.T) {
	reporter := &recordingReporter{}
	c := NewController(&fakeLoader{}, fakeFactory{}, &atomicSurface{}, reporter, Options{})
	loop, _ := startLoop(t, c, 4)

	done := make(chan error, 1)
	go func() {
		done <- loop.Do(context.Background(), func(*Controller) error { panic("render blew up") })
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render blew up")
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after its action panicked")
	}
	require.Len(t, reporter.errs, 1)

	require.NoError(t, loop.Do(context.Background(), func(*Controller) error { return nil }), "loop keeps serving")
}

func TestLoop_StoppedRejectsWork(t *testing.T) {
	c := NewController(&fakeLoader{}, fakeFactory{}, &atomicSurface{}, &recordingReporter{}, Options{})
	loop, cancel := startLoop(t, c, 1)
	cancel()

	assert.Eventually(t, func() bool {
		return !loop.Post(func(*Controller) {})
	}, time.Second, 10*time.Millisecond)
	assert.Error(t, loop.Do(context.Background(), func(*Controller) error { return nil }))
}
