package telemetry

// PointState is a detached copy of one point's current values, used by the
// details panel and by presets.
type PointState struct {
	Kind           Kind    `json:"kind"`
	Index          int     `json:"index"`
	Address        Address `json:"address"`
	ID             string  `json:"id,omitempty"`
	IsOn           bool    `json:"is_on"`
	IsUnreliable   bool    `json:"is_unreliable"`
	IsMalfunction  bool    `json:"is_malfunction"`
	IsIntermediate bool    `json:"is_intermediate"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ValueString    string  `json:"value_string,omitempty"`
}

// Snapshot copies every point in registration order: statuses, analogs, then
// variables.
func (r *Registry) Snapshot() []PointState {
	out := make([]PointState, 0, r.Len())
	out = append(out, r.StatusStates()...)
	out = append(out, r.AnalogStates()...)
	out = append(out, r.VariableStates()...)
	return out
}

func (r *Registry) StatusStates() []PointState {
	out := make([]PointState, 0, len(r.statuses))
	for i, s := range r.statuses {
		out = append(out, PointState{
			Kind:           KindStatus,
			Index:          i,
			Address:        s.addr,
			IsOn:           s.isOn,
			IsUnreliable:   s.isUnreliable,
			IsMalfunction:  s.isMalfunction,
			IsIntermediate: s.isIntermediate,
		})
	}
	return out
}

func (r *Registry) AnalogStates() []PointState {
	out := make([]PointState, 0, len(r.analogs))
	for i, a := range r.analogs {
		out = append(out, PointState{
			Kind:         KindAnalog,
			Index:        i,
			Address:      a.addr,
			IsUnreliable: a.isUnreliable,
			Value:        a.value,
			Unit:         a.unit,
			ValueString:  a.ValueWithUnitString(),
		})
	}
	return out
}

func (r *Registry) VariableStates() []PointState {
	out := make([]PointState, 0, len(r.variables))
	for i, v := range r.variables {
		out = append(out, PointState{
			Kind:         KindVariable,
			Index:        i,
			ID:           v.id,
			IsOn:         v.isOn,
			IsUnreliable: v.isUnreliable,
		})
	}
	return out
}

// Apply writes a saved state onto the matching registered point. Points that
// are not registered are left alone and Apply reports false.
func (r *Registry) Apply(ps PointState) bool {
	switch ps.Kind {
	case KindStatus:
		idx, ok := r.statusIndex[ps.Address]
		if !ok {
			return false
		}
		s := r.statuses[idx]
		s.SetOn(ps.IsOn)
		s.SetUnreliable(ps.IsUnreliable)
		s.SetMalfunction(ps.IsMalfunction)
		s.SetIntermediate(ps.IsIntermediate)
		return true
	case KindAnalog:
		idx, ok := r.analogIndex[ps.Address]
		if !ok {
			return false
		}
		a := r.analogs[idx]
		a.SetValue(ps.Value)
		a.SetUnit(ps.Unit)
		a.SetUnreliable(ps.IsUnreliable)
		return true
	case KindVariable:
		idx, ok := r.variableIndex[ps.ID]
		if !ok {
			return false
		}
		v := r.variables[idx]
		if ps.IsUnreliable {
			v.Set(nil)
		} else {
			on := ps.IsOn
			v.Set(&on)
		}
		return true
	default:
		return false
	}
}
