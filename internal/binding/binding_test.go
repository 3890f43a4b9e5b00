package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

type node struct {
	attrs map[string]string
	text  string
}

func newNode(binding string) *node {
	return &node{attrs: map[string]string{scene.DefaultBindingAttribute: binding}}
}

func (n *node) ID() string { return "n1" }

func (n *node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *node) SetAttr(name, value string) { n.attrs[name] = value }
func (n *node) RemoveAttr(name string)     { delete(n.attrs, name) }
func (n *node) Text() string               { return n.text }
func (n *node) SetText(text string)        { n.text = text }

type registrar struct {
	reg *telemetry.Registry
}

func newRegistrar() *registrar {
	return &registrar{reg: telemetry.NewRegistry(telemetry.NewNotifier())}
}

func (r *registrar) RegisterStatus(addr telemetry.Address) int {
	idx, _ := r.reg.RegisterStatus(addr)
	return idx
}

func (r *registrar) RegisterAnalog(addr telemetry.Address) int {
	idx, _ := r.reg.RegisterAnalog(addr)
	return idx
}

func (r *registrar) RegisterVariable(id string) int {
	idx, _ := r.reg.RegisterVariable(id)
	return idx
}

func TestBuild_StatusFill(t *testing.T) {
	reg := newRegistrar()
	el, err := Factory{}.Build(reg, newNode(`{status: "1:1:5", fill: {on: green, off: red, unreliable: gray}}`))
	require.NoError(t, err)

	require.Len(t, el.Rules(), 1)
	r := el.Rules()[0]
	assert.Equal(t, telemetry.KindStatus, r.Kind)
	assert.Equal(t, 0, r.Index)
	assert.Equal(t, scene.EffectFill, r.Effect)
	assert.Equal(t, scene.Palette{On: "green", Off: "red", Unreliable: "gray"}, r.Palette)
	assert.Equal(t, 1, reg.reg.StatusCount())
}

func TestBuild_SequenceSharesRegistry(t *testing.T) {
	reg := newRegistrar()
	raw := `[{analog: "1:2:7", text: value_with_unit}, {analog: "1:2:7", move: {dx: 2, dy: -1}}, {variable: auto, visible: off}]`

	el, err := Factory{}.Build(reg, newNode(raw))
	require.NoError(t, err)

	rules := el.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, scene.TextValueWithUnit, rules[0].Format)
	assert.Equal(t, 0, rules[1].Index)
	assert.Equal(t, 2.0, rules[1].DX)
	assert.Equal(t, -1.0, rules[1].DY)
	assert.Equal(t, telemetry.KindVariable, rules[2].Kind)
	assert.False(t, rules[2].ShowWhenOn)
	assert.Equal(t, 1, reg.reg.AnalogCount())
	assert.Equal(t, 1, reg.reg.VariableCount())
}

func TestBuild_StatusLabels(t *testing.T) {
	el, err := Factory{}.Build(newRegistrar(), newNode(`{status: "2:1:9", text: {on: OPEN, off: CLOSED}, stroke: {malfunction: orange}}`))
	require.NoError(t, err)

	rules := el.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, scene.EffectStroke, rules[0].Effect)
	assert.Equal(t, "orange", rules[0].Palette.Malfunction)
	assert.Equal(t, scene.Labels{On: "OPEN", Off: "CLOSED"}, rules[1].Labels)
}

func TestBuild_CustomAttribute(t *testing.T) {
	n := &node{attrs: map[string]string{"data-tm": `{variable: pump_auto, visible: on}`}}

	el, err := Factory{Attribute: "data-tm"}.Build(newRegistrar(), n)
	require.NoError(t, err)
	assert.True(t, el.Rules()[0].ShowWhenOn)
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "  "},
		{"not yaml", `{status: [`},
		{"scalar", `pump`},
		{"no source", `{fill: {on: green}}`},
		{"two sources", `{status: "1:1:1", variable: x, fill: {on: green}}`},
		{"bad address", `{status: "1:x:1", fill: {on: green}}`},
		{"no effect", `{status: "1:1:1"}`},
		{"unknown key", `{status: "1:1:1", blink: yes}`},
		{"bad visible", `{variable: x, visible: maybe}`},
		{"analog labels", `{analog: "1:1:1", text: {on: a}}`},
		{"status format", `{status: "1:1:1", text: value}`},
		{"unknown format", `{analog: "1:1:1", text: percent}`},
		{"empty sequence", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Factory{}.Build(newRegistrar(), newNode(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestBuild_InvalidLeavesNoPoint(t *testing.T) {
	reg := newRegistrar()

	_, err := Factory{}.Build(reg, newNode(`[{status: "1:1:1", fill: {on: green}}, {analog: "1:1:2", text: bogus}]`))

	require.Error(t, err)
	assert.Equal(t, 0, reg.reg.Len())
}

func TestBuild_MisspelledLabelKey(t *testing.T) {
	reg := newRegistrar()

	_, err := Factory{}.Build(reg, newNode(`{status: "1:1:1", text: {on: RUN, of: STOP}}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"of"`)
	assert.Equal(t, 0, reg.reg.Len())
}

func TestBuild_MissingAttribute(t *testing.T) {
	_, err := Factory{}.Build(newRegistrar(), &node{attrs: map[string]string{}})
	assert.Error(t, err)
}
