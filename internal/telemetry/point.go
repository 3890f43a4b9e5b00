package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidValueString is shown in place of an analog value that is unreliable,
// never set, or no longer registered.
const InvalidValueString = "???"

type Kind string

const (
	KindStatus   Kind = "status"
	KindAnalog   Kind = "analog"
	KindVariable Kind = "variable"
)

// Address identifies one hardware telemetry source.
type Address struct {
	Channel int `json:"channel"`
	RTU     int `json:"rtu"`
	Point   int `json:"point"`
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%d:%d", a.Channel, a.RTU, a.Point)
}

// ParseAddress reads the "ch:rtu:point" form produced by Address.String.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Address{}, fmt.Errorf("address %q: expected ch:rtu:point", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Address{}, fmt.Errorf("address %q: %w", s, err)
		}
		nums[i] = n
	}
	return Address{Channel: nums[0], RTU: nums[1], Point: nums[2]}, nil
}

// TmStatus is a discrete two-state point. When IsUnreliable is set the
// value of IsOn carries no meaning for consumers.
type TmStatus struct {
	addr           Address
	isOn           bool
	isUnreliable   bool
	isMalfunction  bool
	isIntermediate bool
	emit           func()
}

func (s *TmStatus) Address() Address     { return s.addr }
func (s *TmStatus) IsOn() bool           { return s.isOn }
func (s *TmStatus) IsUnreliable() bool   { return s.isUnreliable }
func (s *TmStatus) IsMalfunction() bool  { return s.isMalfunction }
func (s *TmStatus) IsIntermediate() bool { return s.isIntermediate }

func (s *TmStatus) SetOn(v bool) {
	s.isOn = v
	s.changed()
}

func (s *TmStatus) SetUnreliable(v bool) {
	s.isUnreliable = v
	s.changed()
}

func (s *TmStatus) SetMalfunction(v bool) {
	s.isMalfunction = v
	s.changed()
}

func (s *TmStatus) SetIntermediate(v bool) {
	s.isIntermediate = v
	s.changed()
}

func (s *TmStatus) changed() {
	if s.emit != nil {
		s.emit()
	}
}

// TmAnalog is a continuous measurement point.
type TmAnalog struct {
	addr         Address
	value        float64
	unit         string
	isUnreliable bool
	initialized  bool
	emit         func()
}

func (a *TmAnalog) Address() Address   { return a.addr }
func (a *TmAnalog) Value() float64     { return a.value }
func (a *TmAnalog) Unit() string       { return a.unit }
func (a *TmAnalog) IsUnreliable() bool { return a.isUnreliable }

func (a *TmAnalog) SetValue(v float64) {
	a.value = v
	a.initialized = true
	a.changed()
}

func (a *TmAnalog) SetUnit(unit string) {
	a.unit = unit
	a.changed()
}

func (a *TmAnalog) SetUnreliable(v bool) {
	a.isUnreliable = v
	a.changed()
}

// ValueString formats the value, or returns InvalidValueString when the
// point is unreliable or has never received a value.
func (a *TmAnalog) ValueString() string {
	if a.isUnreliable || !a.initialized {
		return InvalidValueString
	}
	return strconv.FormatFloat(a.value, 'f', -1, 64)
}

func (a *TmAnalog) ValueWithUnitString() string {
	v := a.ValueString()
	if v == InvalidValueString || a.unit == "" {
		return v
	}
	return v + " " + a.unit
}

func (a *TmAnalog) changed() {
	if a.emit != nil {
		a.emit()
	}
}

// Variable is a named flag not tied to a hardware address.
type Variable struct {
	id           string
	isOn         bool
	isUnreliable bool
	emit         func()
}

func (v *Variable) ID() string         { return v.id }
func (v *Variable) IsOn() bool         { return v.isOn }
func (v *Variable) IsUnreliable() bool { return v.isUnreliable }

// Set applies a tri-state value: nil marks the variable unreliable and keeps
// the previous on/off state, true/false sets it and clears unreliable.
func (v *Variable) Set(on *bool) {
	if on == nil {
		v.isUnreliable = true
		v.changed()
		return
	}
	v.isUnreliable = false
	v.isOn = *on
	v.changed()
}

func (v *Variable) changed() {
	if v.emit != nil {
		v.emit()
	}
}
