package scene

import "github.com/thatsimonsguy/svg-playground/internal/telemetry"

type Effect string

const (
	EffectFill    Effect = "fill"
	EffectStroke  Effect = "stroke"
	EffectVisible Effect = "visible"
	EffectText    Effect = "text"
	EffectMove    Effect = "move"
)

// TextFormat selects which analog string a text effect shows.
type TextFormat string

const (
	TextValue         TextFormat = "value"
	TextValueWithUnit TextFormat = "value_with_unit"
	TextUnit          TextFormat = "unit"
)

// Palette maps point state to a color. Empty entries fall back to the
// on/off color, then to the node's original attribute.
type Palette struct {
	On           string `json:"on,omitempty"`
	Off          string `json:"off,omitempty"`
	Unreliable   string `json:"unreliable,omitempty"`
	Malfunction  string `json:"malfunction,omitempty"`
	Intermediate string `json:"intermediate,omitempty"`
}

// Labels maps on/off/unreliable state to label text.
type Labels struct {
	On         string `json:"on,omitempty"`
	Off        string `json:"off,omitempty"`
	Unreliable string `json:"unreliable,omitempty"`
}

// Rule binds one registry index to one visual effect. Only the fields the
// effect needs are meaningful.
type Rule struct {
	Kind   telemetry.Kind
	Index  int
	Effect Effect

	Palette    Palette    // fill, stroke
	ShowWhenOn bool       // visible
	Format     TextFormat // text on analogs
	Labels     Labels     // text on statuses and variables
	DX, DY     float64    // move
}

// attrName is the node attribute the rule writes, or "" for text.
func (r Rule) attrName() string {
	switch r.Effect {
	case EffectFill:
		return "fill"
	case EffectStroke:
		return "stroke"
	case EffectVisible:
		return "visibility"
	case EffectMove:
		return "transform"
	default:
		return ""
	}
}
