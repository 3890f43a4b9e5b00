package telemetry

// Change identifies the point that was mutated.
type Change struct {
	Kind  Kind
	Index int
}

type pointKey struct {
	kind  Kind
	index int
}

// Notifier fans a point's change out to whoever subscribed to that point.
// Subscriptions live until Reset; it is not safe for concurrent use.
type Notifier struct {
	subs map[pointKey][]func(Change)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[pointKey][]func(Change))}
}

// Subscribe registers fn for changes of the point (kind, index).
func (n *Notifier) Subscribe(kind Kind, index int, fn func(Change)) {
	key := pointKey{kind: kind, index: index}
	n.subs[key] = append(n.subs[key], fn)
}

// Emit delivers one change synchronously, in subscription order.
func (n *Notifier) Emit(c Change) {
	for _, fn := range n.subs[pointKey{kind: c.Kind, index: c.Index}] {
		fn(c)
	}
}

// Reset drops every subscription.
func (n *Notifier) Reset() {
	n.subs = make(map[pointKey][]func(Change))
}

func (n *Notifier) Len() int {
	total := 0
	for _, s := range n.subs {
		total += len(s)
	}
	return total
}
