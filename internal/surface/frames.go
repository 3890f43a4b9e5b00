package surface

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/datadog"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

// BlankFrame is served when there is nothing to draw or drawing failed.
var BlankFrame = []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)

// Scheduler runs a closure on the goroutine that owns the controller.
type Scheduler interface {
	Do(ctx context.Context, fn func(*scene.Controller) error) error
}

// Frames is the redraw surface. Redraw requests are coalesced into a single
// pending slot and painted later on the Run goroutine, which pulls the
// current drawing through the scheduler.
type Frames struct {
	sched    Scheduler
	requests chan struct{}

	mu        sync.RWMutex
	frame     []byte
	version   uint64
	listeners []func(version uint64)
}

func NewFrames(sched Scheduler) *Frames {
	return &Frames{
		sched:    sched,
		requests: make(chan struct{}, 1),
		frame:    BlankFrame,
	}
}

// RequestRedraw never blocks. Requests made while one is already pending
// are merged into it.
func (f *Frames) RequestRedraw() {
	select {
	case f.requests <- struct{}{}:
	default:
	}
}

func (f *Frames) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.requests:
			f.Paint(ctx)
		}
	}
}

// Paint renders one frame and publishes it to listeners.
func (f *Frames) Paint(ctx context.Context) {
	var buf bytes.Buffer
	err := f.sched.Do(ctx, func(c *scene.Controller) error {
		err := c.RenderFrame(&buf)
		if err != nil && !errors.Is(err, scene.ErrNoDocument) {
			err = &scene.RedrawError{Err: err}
			c.Report(err)
		}
		return err
	})

	frame := buf.Bytes()
	switch {
	case err == nil:
	case errors.Is(err, scene.ErrNoDocument):
		frame = BlankFrame
	case errors.Is(err, context.Canceled):
		return
	default:
		log.Debug().Err(err).Msg("Serving blank frame")
		frame = BlankFrame
	}

	f.mu.Lock()
	f.frame = frame
	f.version++
	version := f.version
	listeners := append([]func(uint64){}, f.listeners...)
	f.mu.Unlock()

	datadog.Count("scene.redraws", 1)
	for _, fn := range listeners {
		fn(version)
	}
}

// Frame returns the latest painted frame and its version.
func (f *Frames) Frame() ([]byte, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame, f.version
}

// AddListener registers fn to be called after every paint.
func (f *Frames) AddListener(fn func(version uint64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}
