package scene

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

type fakeNode struct {
	id    string
	attrs map[string]string
	text  string
}

func newFakeNode(id, binding string) *fakeNode {
	return &fakeNode{id: id, attrs: map[string]string{DefaultBindingAttribute: binding}}
}

func (n *fakeNode) ID() string { return n.id }

func (n *fakeNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *fakeNode) SetAttr(name, value string) { n.attrs[name] = value }
func (n *fakeNode) RemoveAttr(name string)     { delete(n.attrs, name) }
func (n *fakeNode) Text() string               { return n.text }
func (n *fakeNode) SetText(text string)        { n.text = text }

// explodingNode panics whenever an element writes to it.
type explodingNode struct {
	*fakeNode
}

func (explodingNode) SetAttr(string, string) { panic("node detached") }
func (explodingNode) RemoveAttr(string)      { panic("node detached") }

type fakeDoc struct {
	title    string
	nodes    []*fakeNode
	queryErr error
	rendered int
}

func (d *fakeDoc) Title() string { return d.title }

func (d *fakeDoc) BoundNodes(attr string) ([]Node, error) {
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	var out []Node
	for _, n := range d.nodes {
		if _, ok := n.attrs[attr]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (d *fakeDoc) Render(w io.Writer, scale float64) error {
	d.rendered++
	_, err := fmt.Fprintf(w, "<svg scale=%q/>", formatFloat(scale))
	return err
}

type fakeLoader struct {
	docs  map[string]*fakeDoc
	calls int
	panic bool
}

func (l *fakeLoader) Load(path string) (Document, error) {
	l.calls++
	if l.panic {
		panic("loader exploded")
	}
	d, ok := l.docs[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return d, nil
}

// fakeFactory reads bindings of the form "status ch:rtu:pt", "analog ch:rtu:pt"
// or "variable id" and gives every element one fill rule.
type fakeFactory struct{}

func (fakeFactory) Build(reg Registrar, node Node) (*Element, error) {
	raw, _ := node.Attr(DefaultBindingAttribute)
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return nil, fmt.Errorf("bad binding %q", raw)
	}
	rule := Rule{Effect: EffectFill, Palette: Palette{On: "green", Off: "red", Unreliable: "gray"}}
	switch fields[0] {
	case "status", "analog":
		addr, err := telemetry.ParseAddress(fields[1])
		if err != nil {
			return nil, err
		}
		if fields[0] == "status" {
			rule.Kind, rule.Index = telemetry.KindStatus, reg.RegisterStatus(addr)
		} else {
			rule.Kind, rule.Index = telemetry.KindAnalog, reg.RegisterAnalog(addr)
		}
	case "variable":
		rule.Kind, rule.Index = telemetry.KindVariable, reg.RegisterVariable(fields[1])
	case "skip":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown source %q", fields[0])
	}
	return NewElement(node, rule), nil
}

type countingSurface struct {
	redraws int
}

func (s *countingSurface) RequestRedraw() { s.redraws++ }

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) Report(err error) { r.errs = append(r.errs, err) }

// fakeReader serves fixed point state to Element tests.
type fakeReader struct {
	statuses  map[int]pointView
	analogs   map[int]pointView
	units     map[int]string
	variables map[int]pointView
}

func (f *fakeReader) get(kind telemetry.Kind, idx int) (pointView, bool) {
	var m map[int]pointView
	switch kind {
	case telemetry.KindStatus:
		m = f.statuses
	case telemetry.KindAnalog:
		m = f.analogs
	case telemetry.KindVariable:
		m = f.variables
	}
	v, ok := m[idx]
	return v, ok
}

func (f *fakeReader) HasPoint(kind telemetry.Kind, idx int) bool {
	_, ok := f.get(kind, idx)
	return ok
}

func (f *fakeReader) IsStatusOn(idx int) bool           { return f.statuses[idx].on }
func (f *fakeReader) IsStatusUnreliable(idx int) bool   { return f.statuses[idx].unreliable }
func (f *fakeReader) IsStatusMalfunction(idx int) bool  { return f.statuses[idx].malfunction }
func (f *fakeReader) IsStatusIntermediate(idx int) bool { return f.statuses[idx].intermediate }
func (f *fakeReader) IsAnalogUnreliable(idx int) bool   { return f.analogs[idx].unreliable }
func (f *fakeReader) AnalogValue(idx int) float64       { return f.analogs[idx].value }
func (f *fakeReader) AnalogUnit(idx int) string         { return f.units[idx] }
func (f *fakeReader) IsVariableOn(idx int) bool         { return f.variables[idx].on }
func (f *fakeReader) IsVariableUnreliable(idx int) bool { return f.variables[idx].unreliable }

func (f *fakeReader) AnalogValueString(idx int) string {
	v, ok := f.analogs[idx]
	if !ok || v.unreliable {
		return telemetry.InvalidValueString
	}
	return formatFloat(v.value)
}

func (f *fakeReader) AnalogValueWithUnitString(idx int) string {
	s := f.AnalogValueString(idx)
	if s == telemetry.InvalidValueString || f.units[idx] == "" {
		return s
	}
	return s + " " + f.units[idx]
}
