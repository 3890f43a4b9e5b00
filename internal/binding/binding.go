// Package binding turns the binding attribute of a drawing node into scene
// rules.
//
// The attribute holds YAML flow syntax, either one mapping or a sequence of
// mappings:
//
//	{status: "1:1:5", fill: {on: green, off: red, unreliable: gray}}
//	[{analog: "1:2:7", text: value_with_unit}, {variable: auto, visible: on}]
//
// Each mapping names exactly one source (status, analog or variable) and at
// least one effect (fill, stroke, visible, text or move).
package binding

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/svg-playground/internal/scene"
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

type palette struct {
	On           string `yaml:"on"`
	Off          string `yaml:"off"`
	Unreliable   string `yaml:"unreliable"`
	Malfunction  string `yaml:"malfunction"`
	Intermediate string `yaml:"intermediate"`
}

type labels struct {
	On         string `yaml:"on"`
	Off        string `yaml:"off"`
	Unreliable string `yaml:"unreliable"`
}

// text is either a scalar analog format or a label mapping.
type text struct {
	format scene.TextFormat
	labels *labels
}

func (t *text) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		t.format = scene.TextFormat(value.Value)
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch k := value.Content[i]; k.Value {
			case "on", "off", "unreliable":
			default:
				return fmt.Errorf("line %d: unknown text label %q", k.Line, k.Value)
			}
		}
		var l labels
		if err := value.Decode(&l); err != nil {
			return err
		}
		t.labels = &l
		return nil
	default:
		return fmt.Errorf("line %d: text must be a format or a label mapping", value.Line)
	}
}

type move struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

type ruleSpec struct {
	Status   string `yaml:"status"`
	Analog   string `yaml:"analog"`
	Variable string `yaml:"variable"`

	Fill    *palette `yaml:"fill"`
	Stroke  *palette `yaml:"stroke"`
	Visible string   `yaml:"visible"`
	Text    *text    `yaml:"text"`
	Move    *move    `yaml:"move"`
}

// Factory builds elements from nodes tagged with Attribute.
type Factory struct {
	Attribute string
}

func (f Factory) Build(reg scene.Registrar, node scene.Node) (*scene.Element, error) {
	attr := f.Attribute
	if attr == "" {
		attr = scene.DefaultBindingAttribute
	}
	raw, ok := node.Attr(attr)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty %s attribute", attr)
	}

	specs, err := parse(raw)
	if err != nil {
		return nil, err
	}

	// Validate everything before registering so a broken binding never
	// leaves a point behind.
	built := make([][]scene.Rule, len(specs))
	for i, spec := range specs {
		rs, err := spec.rules()
		if err != nil {
			if len(specs) > 1 {
				return nil, fmt.Errorf("binding %d: %w", i, err)
			}
			return nil, err
		}
		built[i] = rs
	}

	var rules []scene.Rule
	for i, spec := range specs {
		idx := spec.register(reg)
		for _, r := range built[i] {
			r.Index = idx
			rules = append(rules, r)
		}
	}
	return scene.NewElement(node, rules...), nil
}

// parse reads raw into one ruleSpec per mapping. Unknown keys are an error.
func parse(raw string) ([]ruleSpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, fmt.Errorf("invalid binding syntax: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("binding is empty")
	}

	dec := yaml.NewDecoder(strings.NewReader(raw))
	dec.KnownFields(true)

	switch root.Content[0].Kind {
	case yaml.MappingNode:
		var spec ruleSpec
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("invalid binding: %w", err)
		}
		return []ruleSpec{spec}, nil
	case yaml.SequenceNode:
		var specs []ruleSpec
		if err := dec.Decode(&specs); err != nil {
			return nil, fmt.Errorf("invalid binding: %w", err)
		}
		if len(specs) == 0 {
			return nil, errors.New("binding is empty")
		}
		return specs, nil
	default:
		return nil, errors.New("binding must be a mapping or a sequence of mappings")
	}
}

func (s ruleSpec) rules() ([]scene.Rule, error) {
	kind, err := s.kind()
	if err != nil {
		return nil, err
	}

	base := scene.Rule{Kind: kind}
	var out []scene.Rule

	if s.Fill != nil {
		r := base
		r.Effect = scene.EffectFill
		r.Palette = s.Fill.toScene()
		out = append(out, r)
	}
	if s.Stroke != nil {
		r := base
		r.Effect = scene.EffectStroke
		r.Palette = s.Stroke.toScene()
		out = append(out, r)
	}
	if s.Visible != "" {
		r := base
		r.Effect = scene.EffectVisible
		switch s.Visible {
		case "on":
			r.ShowWhenOn = true
		case "off":
			r.ShowWhenOn = false
		default:
			return nil, fmt.Errorf("visible must be on or off, got %q", s.Visible)
		}
		out = append(out, r)
	}
	if s.Text != nil {
		r := base
		r.Effect = scene.EffectText
		if err := s.Text.apply(kind, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if s.Move != nil {
		r := base
		r.Effect = scene.EffectMove
		r.DX, r.DY = s.Move.DX, s.Move.DY
		out = append(out, r)
	}

	if len(out) == 0 {
		return nil, errors.New("binding has no effect")
	}
	return out, nil
}

func (s ruleSpec) kind() (telemetry.Kind, error) {
	var kinds []telemetry.Kind
	if strings.TrimSpace(s.Status) != "" {
		kinds = append(kinds, telemetry.KindStatus)
	}
	if strings.TrimSpace(s.Analog) != "" {
		kinds = append(kinds, telemetry.KindAnalog)
	}
	if strings.TrimSpace(s.Variable) != "" {
		kinds = append(kinds, telemetry.KindVariable)
	}
	switch len(kinds) {
	case 0:
		return "", errors.New("binding has no source (status, analog or variable)")
	case 1:
	default:
		return "", errors.New("binding has more than one source")
	}

	switch kinds[0] {
	case telemetry.KindStatus:
		if _, err := telemetry.ParseAddress(s.Status); err != nil {
			return "", err
		}
	case telemetry.KindAnalog:
		if _, err := telemetry.ParseAddress(s.Analog); err != nil {
			return "", err
		}
	}
	return kinds[0], nil
}

// register must only run after kind() succeeded.
func (s ruleSpec) register(reg scene.Registrar) int {
	switch {
	case strings.TrimSpace(s.Status) != "":
		addr, _ := telemetry.ParseAddress(s.Status)
		return reg.RegisterStatus(addr)
	case strings.TrimSpace(s.Analog) != "":
		addr, _ := telemetry.ParseAddress(s.Analog)
		return reg.RegisterAnalog(addr)
	default:
		return reg.RegisterVariable(strings.TrimSpace(s.Variable))
	}
}

func (t *text) apply(kind telemetry.Kind, r *scene.Rule) error {
	if kind == telemetry.KindAnalog {
		if t.labels != nil {
			return errors.New("analog text takes a format, not labels")
		}
		switch t.format {
		case scene.TextValue, scene.TextValueWithUnit, scene.TextUnit:
			r.Format = t.format
			return nil
		default:
			return fmt.Errorf("unknown text format %q", t.format)
		}
	}
	if t.labels == nil {
		return fmt.Errorf("%s text takes labels {on, off, unreliable}", kind)
	}
	r.Labels = scene.Labels{On: t.labels.On, Off: t.labels.Off, Unreliable: t.labels.Unreliable}
	return nil
}

func (p *palette) toScene() scene.Palette {
	return scene.Palette{
		On:           p.On,
		Off:          p.Off,
		Unreliable:   p.Unreliable,
		Malfunction:  p.Malfunction,
		Intermediate: p.Intermediate,
	}
}
