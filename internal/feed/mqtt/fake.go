package mqtt

import (
	"strings"
	"sync"
)

// FakeSubscriber records subscriptions and lets tests deliver messages.
type FakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]Handler

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool
}

func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{handlers: map[string]Handler{}}
}

func (f *FakeSubscriber) Subscribe(filter string, qos byte, handler Handler) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[filter] = handler
	return nil
}

// Filters lists the active subscriptions.
func (f *FakeSubscriber) Filters() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.handlers {
		out = append(out, k)
	}
	return out
}

// Deliver hands payload to every handler whose filter matches topic. Only
// the trailing "#" wildcard is understood.
func (f *FakeSubscriber) Deliver(topic string, payload []byte) {
	f.mu.Lock()
	var matched []Handler
	for filter, h := range f.handlers {
		if filter == topic || (strings.HasSuffix(filter, "/#") && strings.HasPrefix(topic, strings.TrimSuffix(filter, "#"))) {
			matched = append(matched, h)
		}
	}
	f.mu.Unlock()
	for _, h := range matched {
		h(topic, payload)
	}
}

func (f *FakeSubscriber) Close() error {
	f.Closed = true
	return nil
}
