package scene

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/svg-playground/internal/datadog"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

const (
	DefaultBindingAttribute = "oikelement"
	DefaultZoomStep         = 1.5
	DefaultTitle            = "SVG"
)

type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "empty"
	}
}

type Options struct {
	BindingAttribute string
	ZoomStep         float64
}

// Controller owns the registries and the element list of the loaded
// document. It is not safe for concurrent use; run every call through a
// Loop when more than one goroutine is involved.
type Controller struct {
	loader   Loader
	factory  ElementFactory
	surface  Surface
	reporter Reporter

	attr     string
	zoomStep float64

	registry *telemetry.Registry
	elements []*Element
	doc      Document

	state   State
	path    string
	title   string
	docID   string
	scale   float64
	pending bool
	lastErr string
}

func NewController(loader Loader, factory ElementFactory, surface Surface, reporter Reporter, opts Options) *Controller {
	if opts.BindingAttribute == "" {
		opts.BindingAttribute = DefaultBindingAttribute
	}
	if opts.ZoomStep <= 0 {
		opts.ZoomStep = DefaultZoomStep
	}
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Controller{
		loader:   loader,
		factory:  factory,
		surface:  surface,
		reporter: reporter,
		attr:     opts.BindingAttribute,
		zoomStep: opts.ZoomStep,
		registry: telemetry.NewRegistry(telemetry.NewNotifier()),
		title:    DefaultTitle,
		scale:    1,
	}
}

func (c *Controller) State() State         { return c.state }
func (c *Controller) Path() string         { return c.path }
func (c *Controller) Title() string        { return c.title }
func (c *Controller) DocumentID() string   { return c.docID }
func (c *Controller) Scale() float64       { return c.scale }
func (c *Controller) Elements() []*Element { return c.elements }
func (c *Controller) LastError() string    { return c.lastErr }
func (c *Controller) Pending() bool        { return c.pending }
func (c *Controller) PointCount() int      { return c.registry.Len() }

func (c *Controller) BindingAttribute() string { return c.attr }

// SetSurface replaces the redraw surface. The surface usually needs the
// update loop, which in turn needs the controller, so it is attached after
// construction.
func (c *Controller) SetSurface(s Surface) { c.surface = s }

// Load replaces the scene with the document at path. Nodes that fail to bind
// are reported and skipped; a document that cannot be opened or queried
// leaves the controller in StateError with an empty scene.
func (c *Controller) Load(path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.fail(&LoadError{Path: path, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	c.clear()
	c.path = path
	c.lastErr = ""

	doc, err := c.loader.Load(path)
	if err != nil {
		return c.fail(&LoadError{Path: path, Err: err})
	}

	nodes, err := doc.BoundNodes(c.attr)
	if err != nil {
		return c.fail(&LoadError{Path: path, Err: err})
	}

	elements := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		el, err := c.factory.Build(c, n)
		if err != nil {
			c.Report(&BindingError{Node: n.ID(), Err: err})
			continue
		}
		if el != nil {
			elements = append(elements, el)
		}
	}

	c.doc = doc
	c.elements = elements
	c.state = StateLoaded
	c.docID = uuid.NewString()
	c.title = strings.TrimSpace(doc.Title())
	if c.title == "" {
		c.title = DefaultTitle
	}

	log.Info().
		Str("path", path).
		Str("title", c.title).
		Int("nodes", len(nodes)).
		Int("elements", len(elements)).
		Int("points", c.registry.Len()).
		Msg("Loaded document")

	datadog.Gauge("scene.elements", float64(len(elements)))
	datadog.Gauge("telemetry.points", float64(c.registry.Len()))

	c.Update()
	return nil
}

// Reload opens the last requested path again. It does nothing when no
// document was ever requested.
func (c *Controller) Reload() error {
	if c.path == "" {
		return nil
	}
	return c.Load(c.path)
}

// Update recomputes every element in construction order and then requests
// exactly one redraw. It is a no-op unless a document is loaded. An element
// that panics is reported and the pass carries on with the next one.
func (c *Controller) Update() {
	c.pending = false
	if c.state != StateLoaded {
		return
	}
	for i, e := range c.elements {
		c.updateElement(i, e)
	}
	datadog.Count("scene.update_passes", 1)
	if c.surface != nil {
		c.surface.RequestRedraw()
	}
}

func (c *Controller) updateElement(i int, e *Element) {
	defer func() {
		if r := recover(); r != nil {
			c.Report(&BindingError{Node: fmt.Sprintf("element %d", i), Err: fmt.Errorf("update panic: %v", r)})
		}
	}()
	e.Update(c)
}

// SetScale stores scale, snapping it to exactly 1 when it lands inside
// (0.9, 1.1), and recomputes the scene. Non-positive scales are ignored.
func (c *Controller) SetScale(scale float64) {
	if scale <= 0 {
		log.Warn().Float64("scale", scale).Msg("Ignoring non-positive scale")
		return
	}
	c.scale = snapScale(scale)
	log.Debug().Float64("scale", c.scale).Msg("Scale changed")
	c.Update()
}

// Zoom multiplies the current scale by factor.
func (c *Controller) Zoom(factor float64) {
	c.SetScale(c.scale * factor)
}

func (c *Controller) ZoomIn()  { c.Zoom(c.zoomStep) }
func (c *Controller) ZoomOut() { c.Zoom(1 / c.zoomStep) }

func snapScale(s float64) float64 {
	if s < 1.1 && s > 0.9 && s != 1.0 {
		return 1.0
	}
	return s
}

// RenderFrame writes the current drawing for the redraw surface.
func (c *Controller) RenderFrame(w io.Writer) error {
	if c.state != StateLoaded || c.doc == nil {
		return ErrNoDocument
	}
	r, ok := c.doc.(Renderer)
	if !ok {
		return fmt.Errorf("document %T cannot be rendered", c.doc)
	}
	return r.Render(w, c.scale)
}

// Report records err as the last user-facing message and forwards it.
func (c *Controller) Report(err error) {
	if err == nil {
		return
	}
	c.lastErr = err.Error()
	c.reporter.Report(err)
}

func (c *Controller) clear() {
	c.registry.Clear()
	c.elements = nil
	c.doc = nil
	c.docID = ""
	c.title = DefaultTitle
	c.state = StateEmpty
	c.pending = false
}

func (c *Controller) fail(err error) error {
	c.clear()
	c.state = StateError
	datadog.Count("scene.load_errors", 1)
	c.Report(err)
	return err
}

func (c *Controller) schedule(telemetry.Change) {
	c.pending = true
}
