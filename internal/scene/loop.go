package scene

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const DefaultQueueDepth = 256

// Loop is the single goroutine allowed to touch a Controller. Feeds, the API
// and the redraw surface hand it closures; after each batch of closures it
// runs at most one recompute pass.
type Loop struct {
	ctrl    *Controller
	actions chan func(*Controller)
	done    chan struct{}
}

func NewLoop(c *Controller, depth int) *Loop {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Loop{
		ctrl:    c,
		actions: make(chan func(*Controller), depth),
		done:    make(chan struct{}),
	}
}

// Post queues fn and returns without waiting for it. It blocks while the
// queue is full and reports false once the loop has stopped.
func (l *Loop) Post(fn func(*Controller)) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.actions <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do queues fn and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func(*Controller) error) error {
	result := make(chan error, 1)
	action := func(c *Controller) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("scene action: panic: %v", r)
				c.Report(err)
				result <- err
			}
		}()
		result <- fn(c)
	}

	select {
	case l.actions <- action:
	case <-l.done:
		return fmt.Errorf("update loop stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return fmt.Errorf("update loop stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	log.Info().Int("queue_depth", cap(l.actions)).Msg("Starting scene update loop")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Scene update loop stopped")
			return
		case fn := <-l.actions:
			l.exec(fn)
			l.drain()
			if l.ctrl.Pending() {
				l.ctrl.Update()
			}
		}
	}
}

// drain runs whatever is already queued, bounded by the queue size so a
// busy feed cannot starve the recompute pass.
func (l *Loop) drain() {
	for i := 0; i < cap(l.actions); i++ {
		select {
		case fn := <-l.actions:
			l.exec(fn)
		default:
			return
		}
	}
}

func (l *Loop) exec(fn func(*Controller)) {
	defer func() {
		if r := recover(); r != nil {
			l.ctrl.Report(fmt.Errorf("scene action: panic: %v", r))
		}
	}()
	fn(l.ctrl)
}
