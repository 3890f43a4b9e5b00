package scene

import (
	"strconv"
	"strings"

	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// PointReader is the index-based, read-only view of the registries. Every
// method must tolerate an out-of-range index.
type PointReader interface {
	HasPoint(kind telemetry.Kind, idx int) bool

	IsStatusOn(idx int) bool
	IsStatusUnreliable(idx int) bool
	IsStatusMalfunction(idx int) bool
	IsStatusIntermediate(idx int) bool

	IsAnalogUnreliable(idx int) bool
	AnalogValue(idx int) float64
	AnalogValueString(idx int) string
	AnalogValueWithUnitString(idx int) string
	AnalogUnit(idx int) string

	IsVariableOn(idx int) bool
	IsVariableUnreliable(idx int) bool
}

type baseline struct {
	value   string
	present bool
}

// Element binds one drawing node to its rules. It remembers the node's
// original presentation so a stale binding can fall back to it.
type Element struct {
	node    Node
	rules   []Rule
	attrs   map[string]baseline
	text    string
	hasMove bool
}

func NewElement(node Node, rules ...Rule) *Element {
	e := &Element{
		node:  node,
		rules: rules,
		attrs: make(map[string]baseline),
		text:  node.Text(),
	}
	for _, r := range rules {
		if r.Effect == EffectMove {
			e.hasMove = true
		}
		name := r.attrName()
		if name == "" {
			continue
		}
		if _, seen := e.attrs[name]; seen {
			continue
		}
		v, ok := node.Attr(name)
		e.attrs[name] = baseline{value: v, present: ok}
	}
	return e
}

func (e *Element) Node() Node    { return e.node }
func (e *Element) Rules() []Rule { return e.rules }

// Update recomputes the node's presentation from current point state. It
// only writes to the node.
func (e *Element) Update(r PointReader) {
	var moves []string
	for _, rule := range e.rules {
		v := readPoint(r, rule.Kind, rule.Index)
		switch rule.Effect {
		case EffectFill, EffectStroke:
			e.applyColor(rule, v)
		case EffectVisible:
			e.applyVisible(rule, v)
		case EffectText:
			e.applyText(rule, v, r)
		case EffectMove:
			if t := translateFor(rule, v); t != "" {
				moves = append(moves, t)
			}
		}
	}
	if e.hasMove {
		e.applyMoves(moves)
	}
}

type pointView struct {
	valid        bool
	on           bool
	unreliable   bool
	malfunction  bool
	intermediate bool
	value        float64
}

func readPoint(r PointReader, kind telemetry.Kind, idx int) pointView {
	if !r.HasPoint(kind, idx) {
		return pointView{}
	}
	switch kind {
	case telemetry.KindStatus:
		return pointView{
			valid:        true,
			on:           r.IsStatusOn(idx),
			unreliable:   r.IsStatusUnreliable(idx),
			malfunction:  r.IsStatusMalfunction(idx),
			intermediate: r.IsStatusIntermediate(idx),
		}
	case telemetry.KindAnalog:
		value := r.AnalogValue(idx)
		return pointView{
			valid:      true,
			on:         value != 0,
			unreliable: r.IsAnalogUnreliable(idx),
			value:      value,
		}
	case telemetry.KindVariable:
		return pointView{
			valid:      true,
			on:         r.IsVariableOn(idx),
			unreliable: r.IsVariableUnreliable(idx),
		}
	default:
		return pointView{}
	}
}

// pick chooses the color for v. Flags are checked most severe first.
func (p Palette) pick(v pointView) string {
	var c string
	switch {
	case v.unreliable:
		c = p.Unreliable
	case v.malfunction:
		c = p.Malfunction
	case v.intermediate:
		c = p.Intermediate
	}
	if c != "" {
		return c
	}
	if v.on {
		return p.On
	}
	return p.Off
}

func (e *Element) applyColor(rule Rule, v pointView) {
	name := rule.attrName()
	if !v.valid {
		e.restoreAttr(name)
		return
	}
	c := rule.Palette.pick(v)
	if c == "" {
		e.restoreAttr(name)
		return
	}
	e.node.SetAttr(name, c)
}

func (e *Element) applyVisible(rule Rule, v pointView) {
	name := rule.attrName()
	if !v.valid || v.unreliable {
		e.restoreAttr(name)
		return
	}
	if v.on == rule.ShowWhenOn {
		e.node.SetAttr(name, "visible")
	} else {
		e.node.SetAttr(name, "hidden")
	}
}

func (e *Element) applyText(rule Rule, v pointView, r PointReader) {
	if rule.Kind == telemetry.KindAnalog {
		switch rule.Format {
		case TextUnit:
			e.node.SetText(r.AnalogUnit(rule.Index))
		case TextValue:
			e.node.SetText(r.AnalogValueString(rule.Index))
		default:
			e.node.SetText(r.AnalogValueWithUnitString(rule.Index))
		}
		return
	}

	if !v.valid {
		e.node.SetText(e.text)
		return
	}
	switch {
	case v.unreliable:
		if rule.Labels.Unreliable != "" {
			e.node.SetText(rule.Labels.Unreliable)
		} else {
			e.node.SetText(telemetry.InvalidValueString)
		}
	case v.on:
		e.node.SetText(rule.Labels.On)
	default:
		e.node.SetText(rule.Labels.Off)
	}
}

func translateFor(rule Rule, v pointView) string {
	if !v.valid || v.unreliable {
		return ""
	}
	k := 0.0
	switch {
	case rule.Kind == telemetry.KindAnalog:
		k = v.value
	case v.on:
		k = 1
	}
	if k == 0 {
		return ""
	}
	return "translate(" + formatFloat(rule.DX*k) + " " + formatFloat(rule.DY*k) + ")"
}

func (e *Element) applyMoves(moves []string) {
	if len(moves) == 0 {
		e.restoreAttr("transform")
		return
	}
	parts := make([]string, 0, len(moves)+1)
	if b := e.attrs["transform"]; b.present && b.value != "" {
		parts = append(parts, b.value)
	}
	parts = append(parts, moves...)
	e.node.SetAttr("transform", strings.Join(parts, " "))
}

func (e *Element) restoreAttr(name string) {
	b, ok := e.attrs[name]
	if !ok || !b.present {
		e.node.RemoveAttr(name)
		return
	}
	e.node.SetAttr(name, b.value)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
