package telemetry

// StatusUpdate is a partial change to a status point; nil fields are left
// untouched. Each present field is one mutation and one change event.
type StatusUpdate struct {
	On           *bool `json:"on,omitempty" msgpack:"on,omitempty"`
	Unreliable   *bool `json:"unreliable,omitempty" msgpack:"unreliable,omitempty"`
	Malfunction  *bool `json:"malfunction,omitempty" msgpack:"malfunction,omitempty"`
	Intermediate *bool `json:"intermediate,omitempty" msgpack:"intermediate,omitempty"`
}

func (u StatusUpdate) Empty() bool {
	return u.On == nil && u.Unreliable == nil && u.Malfunction == nil && u.Intermediate == nil
}

func (u StatusUpdate) ApplyTo(s *TmStatus) {
	if u.On != nil {
		s.SetOn(*u.On)
	}
	if u.Unreliable != nil {
		s.SetUnreliable(*u.Unreliable)
	}
	if u.Malfunction != nil {
		s.SetMalfunction(*u.Malfunction)
	}
	if u.Intermediate != nil {
		s.SetIntermediate(*u.Intermediate)
	}
}

// AnalogUpdate is a partial change to an analog point.
type AnalogUpdate struct {
	Value      *float64 `json:"value,omitempty" msgpack:"value,omitempty"`
	Unit       *string  `json:"unit,omitempty" msgpack:"unit,omitempty"`
	Unreliable *bool    `json:"unreliable,omitempty" msgpack:"unreliable,omitempty"`
}

func (u AnalogUpdate) Empty() bool {
	return u.Value == nil && u.Unit == nil && u.Unreliable == nil
}

func (u AnalogUpdate) ApplyTo(a *TmAnalog) {
	if u.Value != nil {
		a.SetValue(*u.Value)
	}
	if u.Unit != nil {
		a.SetUnit(*u.Unit)
	}
	if u.Unreliable != nil {
		a.SetUnreliable(*u.Unreliable)
	}
}
