package surface

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/svg-playground/internal/binding"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/svgdoc"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

const lampSVG = `<svg width="10" height="10"><circle id="lamp" oikelement="{status: '1:1:1', fill: {on: yellow, off: black}}"/></svg>`

type stringLoader map[string]string

func (l stringLoader) Load(path string) (scene.Document, error) {
	src, ok := l[path]
	if !ok {
		return nil, errors.New("not found")
	}
	if src == "unrenderable" {
		return opaqueDoc{}, nil
	}
	return svgdoc.Parse(strings.NewReader(src))
}

// opaqueDoc loads fine but cannot be drawn.
type opaqueDoc struct{}

func (opaqueDoc) Title() string                           { return "" }
func (opaqueDoc) BoundNodes(string) ([]scene.Node, error) { return nil, nil }

type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) all() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func setup(t *testing.T) (*scene.Loop, *Frames, *recorder) {
	t.Helper()
	rec := &recorder{}
	loader := stringLoader{"lamp.svg": lampSVG, "broken.svg": "unrenderable"}
	c := scene.NewController(loader, binding.Factory{}, nil, rec, scene.Options{})
	loop := scene.NewLoop(c, 16)
	frames := NewFrames(loop)
	c.SetSurface(frames)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go loop.Run(ctx)
	return loop, frames, rec
}

func TestFrames_BlankWithoutDocument(t *testing.T) {
	_, frames, rec := setup(t)

	frames.Paint(context.Background())

	frame, version := frames.Frame()
	assert.Equal(t, BlankFrame, frame)
	assert.Equal(t, uint64(1), version)
	assert.Empty(t, rec.all())
}

func TestFrames_PaintsLoadedScene(t *testing.T) {
	loop, frames, _ := setup(t)
	require.NoError(t, loop.Do(context.Background(), func(c *scene.Controller) error {
		if err := c.Load("lamp.svg"); err != nil {
			return err
		}
		on := true
		c.UpdateStatus(telemetry.Address{Channel: 1, RTU: 1, Point: 1}, telemetry.StatusUpdate{On: &on})
		return nil
	}))

	frames.Paint(context.Background())

	frame, _ := frames.Frame()
	assert.Contains(t, string(frame), `fill="yellow"`)
}

func TestFrames_RedrawErrorServesBlankAndReports(t *testing.T) {
	loop, frames, rec := setup(t)
	require.NoError(t, loop.Do(context.Background(), func(c *scene.Controller) error { return c.Load("broken.svg") }))

	frames.Paint(context.Background())

	frame, _ := frames.Frame()
	assert.Equal(t, BlankFrame, frame)
	errs := rec.all()
	require.Len(t, errs, 1)
	var redrawErr *scene.RedrawError
	assert.ErrorAs(t, errs[0], &redrawErr)
}

func TestFrames_RequestRedrawCoalesces(t *testing.T) {
	frames := NewFrames(nil)

	for i := 0; i < 10; i++ {
		frames.RequestRedraw()
	}

	assert.Len(t, frames.requests, 1)
}

func TestFrames_RunNotifiesListeners(t *testing.T) {
	loop, frames, _ := setup(t)
	versions := make(chan uint64, 8)
	frames.AddListener(func(v uint64) { versions <- v })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go frames.Run(ctx)

	require.NoError(t, loop.Do(ctx, func(c *scene.Controller) error { return c.Load("lamp.svg") }))

	select {
	case v := <-versions:
		assert.GreaterOrEqual(t, v, uint64(1))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame painted after load")
	}
}

func TestFrames_PaintNotifiesEveryListener(t *testing.T) {
	_, frames, _ := setup(t)
	var got []uint64
	frames.AddListener(func(v uint64) { got = append(got, v) })
	frames.AddListener(func(v uint64) {
		got = append(got, v*10)
		// registering from inside a notification must not deadlock
		frames.AddListener(func(uint64) {})
	})

	frames.Paint(context.Background())

	assert.Equal(t, []uint64{1, 10}, got)
	frames.mu.RLock()
	defer frames.mu.RUnlock()
	assert.Len(t, frames.listeners, 3)
}
