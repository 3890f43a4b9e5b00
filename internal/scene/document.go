package scene

import (
	"io"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// Node is one drawing node. Elements only touch presentation attributes and
// text through it.
type Node interface {
	ID() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
	Text() string
	SetText(text string)
}

// Document is a parsed drawing.
type Document interface {
	Title() string
	// BoundNodes returns every node carrying attr, in document order.
	BoundNodes(attr string) ([]Node, error)
}

// Renderer is implemented by documents that can serialize their current
// state for the redraw surface.
type Renderer interface {
	Render(w io.Writer, scale float64) error
}

type Loader interface {
	Load(path string) (Document, error)
}

// Registrar hands out registry indices while elements are being built.
type Registrar interface {
	RegisterStatus(addr telemetry.Address) int
	RegisterAnalog(addr telemetry.Address) int
	RegisterVariable(id string) int
}

// ElementFactory turns a tagged node into an Element. A nil Element with a nil
// error means the node is deliberately not animated.
type ElementFactory interface {
	Build(reg Registrar, node Node) (*Element, error)
}

// Surface receives fire-and-forget redraw requests and pulls the scene on its
// own paint cycle.
type Surface interface {
	RequestRedraw()
}

type Reporter interface {
	Report(err error)
}
