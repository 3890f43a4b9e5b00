package telemetry

// Registry is the deduplicating directory of points for one loaded document.
// Lookup by address (or id for variables) is the only way to obtain an
// index; indices are handed out sequentially and never reused until Clear.
// Registry holds no locks: callers serialize access.
type Registry struct {
	notifier *Notifier

	statuses  []*TmStatus
	analogs   []*TmAnalog
	variables []*Variable

	statusIndex   map[Address]int
	analogIndex   map[Address]int
	variableIndex map[string]int
}

func NewRegistry(n *Notifier) *Registry {
	if n == nil {
		n = NewNotifier()
	}
	r := &Registry{notifier: n}
	r.Clear()
	return r
}

func (r *Registry) Notifier() *Notifier { return r.notifier }

// Register dispatches to RegisterStatus or RegisterAnalog. Variables are keyed
// by id and use RegisterVariable; any other kind returns -1.
func (r *Registry) Register(kind Kind, addr Address) (int, bool) {
	switch kind {
	case KindStatus:
		return r.RegisterStatus(addr)
	case KindAnalog:
		return r.RegisterAnalog(addr)
	default:
		return -1, false
	}
}

// RegisterStatus returns the index for addr, creating a default point the
// first time the address is seen. The bool reports whether it was created.
func (r *Registry) RegisterStatus(addr Address) (int, bool) {
	if idx, ok := r.statusIndex[addr]; ok {
		return idx, false
	}
	idx := len(r.statuses)
	s := &TmStatus{addr: addr}
	s.emit = r.emitter(KindStatus, idx)
	r.statuses = append(r.statuses, s)
	r.statusIndex[addr] = idx
	return idx, true
}

func (r *Registry) RegisterAnalog(addr Address) (int, bool) {
	if idx, ok := r.analogIndex[addr]; ok {
		return idx, false
	}
	idx := len(r.analogs)
	a := &TmAnalog{addr: addr}
	a.emit = r.emitter(KindAnalog, idx)
	r.analogs = append(r.analogs, a)
	r.analogIndex[addr] = idx
	return idx, true
}

func (r *Registry) RegisterVariable(id string) (int, bool) {
	if idx, ok := r.variableIndex[id]; ok {
		return idx, false
	}
	idx := len(r.variables)
	v := &Variable{id: id}
	v.emit = r.emitter(KindVariable, idx)
	r.variables = append(r.variables, v)
	r.variableIndex[id] = idx
	return idx, true
}

func (r *Registry) emitter(kind Kind, idx int) func() {
	n := r.notifier
	return func() { n.Emit(Change{Kind: kind, Index: idx}) }
}

func (r *Registry) FindStatus(addr Address) (int, bool) {
	idx, ok := r.statusIndex[addr]
	return idx, ok
}

func (r *Registry) FindAnalog(addr Address) (int, bool) {
	idx, ok := r.analogIndex[addr]
	return idx, ok
}

func (r *Registry) FindVariable(id string) (int, bool) {
	idx, ok := r.variableIndex[id]
	return idx, ok
}

// Status returns the point at idx, or nil and false when idx is out of range.
func (r *Registry) Status(idx int) (*TmStatus, bool) {
	if idx < 0 || idx >= len(r.statuses) {
		return nil, false
	}
	return r.statuses[idx], true
}

func (r *Registry) Analog(idx int) (*TmAnalog, bool) {
	if idx < 0 || idx >= len(r.analogs) {
		return nil, false
	}
	return r.analogs[idx], true
}

func (r *Registry) Variable(idx int) (*Variable, bool) {
	if idx < 0 || idx >= len(r.variables) {
		return nil, false
	}
	return r.variables[idx], true
}

func (r *Registry) StatusCount() int   { return len(r.statuses) }
func (r *Registry) AnalogCount() int   { return len(r.analogs) }
func (r *Registry) VariableCount() int { return len(r.variables) }

func (r *Registry) Len() int {
	return len(r.statuses) + len(r.analogs) + len(r.variables)
}

// Clear discards every point of every kind and the notifier's subscriptions.
// Points handed out before Clear stop notifying.
func (r *Registry) Clear() {
	for _, s := range r.statuses {
		s.emit = nil
	}
	for _, a := range r.analogs {
		a.emit = nil
	}
	for _, v := range r.variables {
		v.emit = nil
	}
	r.statuses = nil
	r.analogs = nil
	r.variables = nil
	r.statusIndex = make(map[Address]int)
	r.analogIndex = make(map[Address]int)
	r.variableIndex = make(map[string]int)
	r.notifier.Reset()
}
