package scene

import (
	"github.com/thatsimonsguy/svg-playground/internal/telemetry"
)

// Registration. Every newly created point is subscribed once so that its
// mutations schedule a recompute pass instead of running one.

func (c *Controller) RegisterStatus(addr telemetry.Address) int {
	idx, created := c.registry.RegisterStatus(addr)
	if created {
		c.registry.Notifier().Subscribe(telemetry.KindStatus, idx, c.schedule)
	}
	return idx
}

func (c *Controller) RegisterAnalog(addr telemetry.Address) int {
	idx, created := c.registry.RegisterAnalog(addr)
	if created {
		c.registry.Notifier().Subscribe(telemetry.KindAnalog, idx, c.schedule)
	}
	return idx
}

func (c *Controller) RegisterVariable(id string) int {
	idx, created := c.registry.RegisterVariable(id)
	if created {
		c.registry.Notifier().Subscribe(telemetry.KindVariable, idx, c.schedule)
	}
	return idx
}

// Read accessors. None of them fail on an unknown index: they fall back to
// false, 0, the invalid value string, or -1 for the status code.

func (c *Controller) HasPoint(kind telemetry.Kind, idx int) bool {
	var ok bool
	switch kind {
	case telemetry.KindStatus:
		_, ok = c.registry.Status(idx)
	case telemetry.KindAnalog:
		_, ok = c.registry.Analog(idx)
	case telemetry.KindVariable:
		_, ok = c.registry.Variable(idx)
	}
	return ok
}

// StatusCode is 1 for on, 0 for off and -1 for an unknown index.
func (c *Controller) StatusCode(idx int) int {
	s, ok := c.registry.Status(idx)
	if !ok {
		return -1
	}
	if s.IsOn() {
		return 1
	}
	return 0
}

func (c *Controller) IsStatusOn(idx int) bool {
	s, ok := c.registry.Status(idx)
	return ok && s.IsOn()
}

func (c *Controller) IsStatusUnreliable(idx int) bool {
	s, ok := c.registry.Status(idx)
	return ok && s.IsUnreliable()
}

func (c *Controller) IsStatusMalfunction(idx int) bool {
	s, ok := c.registry.Status(idx)
	return ok && s.IsMalfunction()
}

func (c *Controller) IsStatusIntermediate(idx int) bool {
	s, ok := c.registry.Status(idx)
	return ok && s.IsIntermediate()
}

func (c *Controller) IsAnalogUnreliable(idx int) bool {
	a, ok := c.registry.Analog(idx)
	return ok && a.IsUnreliable()
}

func (c *Controller) AnalogValue(idx int) float64 {
	a, ok := c.registry.Analog(idx)
	if !ok {
		return 0
	}
	return a.Value()
}

func (c *Controller) AnalogValueString(idx int) string {
	a, ok := c.registry.Analog(idx)
	if !ok {
		return telemetry.InvalidValueString
	}
	return a.ValueString()
}

func (c *Controller) AnalogValueWithUnitString(idx int) string {
	a, ok := c.registry.Analog(idx)
	if !ok {
		return telemetry.InvalidValueString
	}
	return a.ValueWithUnitString()
}

func (c *Controller) AnalogUnit(idx int) string {
	a, ok := c.registry.Analog(idx)
	if !ok {
		return ""
	}
	return a.Unit()
}

func (c *Controller) IsVariableOn(idx int) bool {
	v, ok := c.registry.Variable(idx)
	return ok && v.IsOn()
}

func (c *Controller) IsVariableUnreliable(idx int) bool {
	v, ok := c.registry.Variable(idx)
	return ok && v.IsUnreliable()
}

// Mutators by index, used by the details panel. Unknown indices are ignored
// and reported as false.

func (c *Controller) SetVariable(idx int, on *bool) bool {
	v, ok := c.registry.Variable(idx)
	if !ok {
		return false
	}
	v.Set(on)
	return true
}

func (c *Controller) SetStatus(idx int, u telemetry.StatusUpdate) bool {
	s, ok := c.registry.Status(idx)
	if !ok {
		return false
	}
	u.ApplyTo(s)
	return true
}

func (c *Controller) SetAnalog(idx int, u telemetry.AnalogUpdate) bool {
	a, ok := c.registry.Analog(idx)
	if !ok {
		return false
	}
	u.ApplyTo(a)
	return true
}

// Mutators by address or id, used by telemetry feeds. Addresses that the
// loaded document does not reference are ignored.

func (c *Controller) UpdateStatus(addr telemetry.Address, u telemetry.StatusUpdate) bool {
	idx, ok := c.registry.FindStatus(addr)
	if !ok {
		return false
	}
	return c.SetStatus(idx, u)
}

func (c *Controller) UpdateAnalog(addr telemetry.Address, u telemetry.AnalogUpdate) bool {
	idx, ok := c.registry.FindAnalog(addr)
	if !ok {
		return false
	}
	return c.SetAnalog(idx, u)
}

func (c *Controller) UpdateVariable(id string, on *bool) bool {
	idx, ok := c.registry.FindVariable(id)
	if !ok {
		return false
	}
	return c.SetVariable(idx, on)
}

// Points returns detached copies of every point of kind.
func (c *Controller) Points(kind telemetry.Kind) []telemetry.PointState {
	switch kind {
	case telemetry.KindStatus:
		return c.registry.StatusStates()
	case telemetry.KindAnalog:
		return c.registry.AnalogStates()
	case telemetry.KindVariable:
		return c.registry.VariableStates()
	default:
		return nil
	}
}

func (c *Controller) Snapshot() []telemetry.PointState {
	return c.registry.Snapshot()
}

// ApplySnapshot writes saved states onto registered points and returns how
// many matched.
func (c *Controller) ApplySnapshot(states []telemetry.PointState) int {
	applied := 0
	for _, ps := range states {
		if c.registry.Apply(ps) {
			applied++
		}
	}
	return applied
}

// Addresses lists the registered addresses of kind on one channel, in
// registration order.
func (c *Controller) Addresses(kind telemetry.Kind, channel int) []telemetry.Address {
	var out []telemetry.Address
	for _, ps := range c.Points(kind) {
		if kind == telemetry.KindVariable || ps.Address.Channel != channel {
			continue
		}
		out = append(out, ps.Address)
	}
	return out
}

func (c *Controller) Counts() (statuses, analogs, variables int) {
	return c.registry.StatusCount(), c.registry.AnalogCount(), c.registry.VariableCount()
}
