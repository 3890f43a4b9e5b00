package svgdoc

import (
	"bufio"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var lengthPattern = regexp.MustCompile(`^\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*([a-zA-Z]*)\s*$`)

// Render writes the current document. The root width and height are
// multiplied by scale; a root without them gets them from its viewBox.
func (d *Document) Render(w io.Writer, scale float64) error {
	bw := bufio.NewWriter(w)
	for _, item := range d.prolog {
		writeItem(bw, item)
		bw.WriteByte('\n')
	}
	writeElement(bw, d.root, d.rootAttrs(scale))
	for _, item := range d.epilog {
		bw.WriteByte('\n')
		writeItem(bw, item)
	}
	return bw.Flush()
}

func (d *Document) rootAttrs(scale float64) []xml.Attr {
	attrs := append([]xml.Attr(nil), d.root.attrs...)
	if scale == 1 {
		return attrs
	}

	width, hasW := d.root.Attr("width")
	height, hasH := d.root.Attr("height")
	if !hasW || !hasH {
		vbW, vbH, ok := viewBoxSize(d.root)
		if !ok {
			return attrs
		}
		if !hasW {
			width = vbW
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "width"}})
		}
		if !hasH {
			height = vbH
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "height"}})
		}
	}

	for i, a := range attrs {
		if a.Name.Space != "" {
			continue
		}
		switch a.Name.Local {
		case "width":
			attrs[i].Value = scaleLength(width, scale)
		case "height":
			attrs[i].Value = scaleLength(height, scale)
		}
	}
	return attrs
}

func viewBoxSize(n *Node) (string, string, bool) {
	vb, ok := n.Attr("viewBox")
	if !ok {
		return "", "", false
	}
	fields := strings.FieldsFunc(vb, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return "", "", false
	}
	return fields[2], fields[3], true
}

// scaleLength multiplies a length keeping its unit. Percentages and values it
// cannot read are returned unchanged.
func scaleLength(v string, scale float64) string {
	m := lengthPattern.FindStringSubmatch(v)
	if m == nil || m[2] == "%" {
		return v
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f*scale, 'f', -1, 64) + m[2]
}

func writeItem(w *bufio.Writer, item any) {
	switch t := item.(type) {
	case *Node:
		writeElement(w, t, t.attrs)
	case charData:
		textEscaper.WriteString(w, string(t))
	case rawMarkup:
		w.WriteString(string(t))
	}
}

func writeElement(w *bufio.Writer, n *Node, attrs []xml.Attr) {
	w.WriteByte('<')
	w.WriteString(qualified(n.name))
	for _, a := range attrs {
		w.WriteByte(' ')
		w.WriteString(qualified(a.Name))
		w.WriteString(`="`)
		xml.EscapeText(w, []byte(a.Value))
		w.WriteByte('"')
	}
	if len(n.children) == 0 {
		w.WriteString("/>")
		return
	}
	w.WriteByte('>')
	for _, c := range n.children {
		writeItem(w, c)
	}
	w.WriteString("</")
	w.WriteString(qualified(n.name))
	w.WriteByte('>')
}
