// Package svgdoc is a small mutable SVG tree. It keeps everything it does not
// understand (comments, processing instructions, namespaced attributes) so a
// rendered frame round-trips the source document.
package svgdoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

type charData string

// rawMarkup is already serialized markup such as a comment.
type rawMarkup string

// Node is one SVG element.
type Node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []any
	parent   *Node
	fallback string
}

func (n *Node) Name() string { return qualified(n.name) }

// ID is the id attribute, or the element name and its position in document
// order when the element has none.
func (n *Node) ID() string {
	if id, ok := n.Attr("id"); ok && id != "" {
		return id
	}
	return n.fallback
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if qualified(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) SetAttr(name, value string) {
	for i, a := range n.attrs {
		if qualified(a.Name) == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, xml.Attr{Name: parseName(name), Value: value})
}

func (n *Node) RemoveAttr(name string) {
	for i, a := range n.attrs {
		if qualified(a.Name) == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Text returns the node's own character data. Text elements that wrap their
// content in a tspan report the first tspan's text instead.
func (n *Node) Text() string {
	if span := n.firstChild("tspan"); span != nil {
		return span.Text()
	}
	var b strings.Builder
	for _, c := range n.children {
		if t, ok := c.(charData); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// SetText replaces the node's character data, or that of its first tspan.
func (n *Node) SetText(text string) {
	if span := n.firstChild("tspan"); span != nil {
		span.SetText(text)
		return
	}
	kept := n.children[:0]
	for _, c := range n.children {
		if _, ok := c.(charData); !ok {
			kept = append(kept, c)
		}
	}
	n.children = append([]any{charData(text)}, kept...)
}

func (n *Node) firstChild(local string) *Node {
	for _, c := range n.children {
		if el, ok := c.(*Node); ok && el.name.Local == local {
			return el
		}
	}
	return nil
}

// Document is a parsed SVG file.
type Document struct {
	prolog []any
	root   *Node
	epilog []any
}

func (d *Document) Root() *Node { return d.root }

// Title is the text of the root's first title child.
func (d *Document) Title() string {
	if t := d.root.firstChild("title"); t != nil {
		return t.Text()
	}
	return ""
}

// BoundNodes returns every element carrying attr, in document order.
func (d *Document) BoundNodes(attr string) ([]scene.Node, error) {
	if d.root == nil {
		return nil, errors.New("document has no root element")
	}
	var out []scene.Node
	walk(d.root, func(n *Node) {
		if _, ok := n.Attr(attr); ok {
			out = append(out, n)
		}
	})
	return out, nil
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		if el, ok := c.(*Node); ok {
			walk(el, fn)
		}
	}
}

// Open parses the SVG file at path.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{}
	var (
		stack []*Node
		count int
	)

	appendItem := func(item any) {
		switch {
		case len(stack) > 0:
			top := stack[len(stack)-1]
			top.children = append(top.children, item)
		case doc.root == nil:
			doc.prolog = append(doc.prolog, item)
		default:
			doc.epilog = append(doc.epilog, item)
		}
	}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			count++
			n := &Node{
				name:     t.Name,
				attrs:    append([]xml.Attr(nil), t.Attr...),
				fallback: fmt.Sprintf("%s[%d]", t.Name.Local, count),
			}
			if len(stack) == 0 {
				if doc.root != nil {
					return nil, errors.New("parse svg: more than one root element")
				}
				doc.root = n
			} else {
				n.parent = stack[len(stack)-1]
				n.parent.children = append(n.parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].name != t.Name {
				return nil, fmt.Errorf("parse svg: unexpected </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 && len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			appendItem(charData(t))
		case xml.Comment:
			appendItem(rawMarkup("<!--" + string(t) + "-->"))
		case xml.ProcInst:
			pi := "<?" + t.Target
			if len(t.Inst) > 0 {
				pi += " " + string(t.Inst)
			}
			appendItem(rawMarkup(pi + "?>"))
		case xml.Directive:
			appendItem(rawMarkup("<!" + string(t) + ">"))
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("parse svg: unclosed <%s>", qualified(stack[len(stack)-1].name))
	}
	if doc.root == nil {
		return nil, errors.New("parse svg: no root element")
	}
	if doc.root.name.Local != "svg" {
		return nil, fmt.Errorf("parse svg: root element is <%s>, not <svg>", qualified(doc.root.name))
	}
	return doc, nil
}

// Loader opens documents from the filesystem.
type Loader struct{}

func (Loader) Load(path string) (scene.Document, error) {
	doc, err := Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func parseName(s string) xml.Name {
	if i := strings.IndexByte(s, ':'); i > 0 {
		return xml.Name{Space: s[:i], Local: s[i+1:]}
	}
	return xml.Name{Local: s}
}
