package svgdoc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pumpSVG = `<?xml version="1.0" encoding="UTF-8"?>
<!-- pump station -->
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="200px" height="100" viewBox="0 0 200 100">
  <title>Pump station</title>
  <g id="pumps">
    <rect id="pump-a" oikelement="{status: '1:1:5', fill: {on: green}}" fill="blue" width="10" height="10"/>
    <use xlink:href="#pump-a" oikelement="{status: '1:1:5', stroke: {on: green}}"/>
  </g>
  <text oikelement="{analog: '1:2:7', text: value}"><tspan>0.0</tspan></text>
  <text id="plain">Flow &amp; level</text>
</svg>`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestParse_TitleAndBoundNodes(t *testing.T) {
	doc := mustParse(t, pumpSVG)

	assert.Equal(t, "Pump station", doc.Title())

	nodes, err := doc.BoundNodes("oikelement")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "pump-a", nodes[0].ID())
	assert.Equal(t, "use[5]", nodes[1].ID(), "nodes without id get a positional one")
	assert.Equal(t, "text[6]", nodes[2].ID())
}

func TestParse_NoTitle(t *testing.T) {
	doc := mustParse(t, `<svg><g><title>nested only</title></g></svg>`)
	assert.Equal(t, "", doc.Title())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"not svg", `<html></html>`},
		{"unclosed", `<svg><g></svg>`},
		{"garbage", `<svg <<`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestNode_Attributes(t *testing.T) {
	doc := mustParse(t, pumpSVG)
	nodes, _ := doc.BoundNodes("oikelement")
	rect := nodes[0]

	v, ok := rect.Attr("fill")
	require.True(t, ok)
	assert.Equal(t, "blue", v)

	rect.SetAttr("fill", "green")
	rect.SetAttr("visibility", "hidden")
	rect.RemoveAttr("width")

	v, _ = rect.Attr("fill")
	assert.Equal(t, "green", v)
	v, _ = rect.Attr("visibility")
	assert.Equal(t, "hidden", v)
	_, ok = rect.Attr("width")
	assert.False(t, ok)

	href, ok := nodes[1].Attr("xlink:href")
	require.True(t, ok)
	assert.Equal(t, "#pump-a", href)
}

func TestNode_TextUsesTspan(t *testing.T) {
	doc := mustParse(t, pumpSVG)
	nodes, _ := doc.BoundNodes("oikelement")
	label := nodes[2]

	assert.Equal(t, "0.0", label.Text())
	label.SetText("12.5")
	assert.Equal(t, "12.5", label.Text())

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, 1))
	assert.Contains(t, buf.String(), "<tspan>12.5</tspan>")
}

func TestNode_SetTextKeepsChildren(t *testing.T) {
	doc := mustParse(t, `<svg><text id="t">old<desc>d</desc></text></svg>`)
	n := doc.Root().firstChild("text")

	n.SetText("a < b")

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, 1))
	assert.Equal(t, `<svg><text id="t">a &lt; b<desc>d</desc></text></svg>`, buf.String())
}

func TestRender_RoundTrip(t *testing.T) {
	doc := mustParse(t, pumpSVG)

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, 1))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<!-- pump station -->")
	assert.Contains(t, out, `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	assert.Contains(t, out, `<use xlink:href="#pump-a"`)
	assert.Contains(t, out, "Flow &amp; level")

	again := mustParse(t, out)
	assert.Equal(t, doc.Title(), again.Title())
}

func TestRender_Scale(t *testing.T) {
	doc := mustParse(t, pumpSVG)

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, 1.5))

	assert.Contains(t, buf.String(), `width="300px"`)
	assert.Contains(t, buf.String(), `height="150"`)
	assert.Contains(t, buf.String(), `viewBox="0 0 200 100"`)

	buf.Reset()
	require.NoError(t, doc.Render(&buf, 1))
	assert.Contains(t, buf.String(), `width="200px"`, "scaling never mutates the document")
}

func TestRender_ScaleFromViewBox(t *testing.T) {
	doc := mustParse(t, `<svg viewBox="0,0,40,20"/>`)

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf, 2))

	assert.Equal(t, `<svg viewBox="0,0,40,20" width="80" height="40"/>`, buf.String())
}

func TestScaleLength(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"100", "250"},
		{"10.5mm", "26.25mm"},
		{"50%", "50%"},
		{"auto", "auto"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, scaleLength(tt.in, 2.5))
		})
	}
}

func TestLoader_Open(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pump.svg")
	require.NoError(t, os.WriteFile(path, []byte(pumpSVG), 0644))

	doc, err := Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Pump station", doc.Title())

	_, err = Loader{}.Load(filepath.Join(t.TempDir(), "missing.svg"))
	assert.Error(t, err)
}
