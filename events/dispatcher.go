// Package events is a small ordered publish/subscribe bus. Components publish
// named hooks with a mutable payload and collaborators subscribe with a priority.
package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Event is handed to every listener of a single dispatch.
type Event struct {
	Name    string
	Payload any

	stopped bool
}

// StopPropagation prevents lower-priority listeners from seeing the event.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether a listener stopped propagation.
func (e *Event) Stopped() bool { return e.stopped }

// Listener handles one event. A returned error aborts the dispatch.
type Listener func(ctx context.Context, e *Event) error

// Publisher is the narrow view handed to components that only emit hooks.
type Publisher interface {
	Dispatch(ctx context.Context, name string, payload any) (*Event, error)
}

type subscription struct {
	listener Listener
	priority int
	seq      uint64
}

// Dispatcher keeps an ordered subscriber list per hook name.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]subscription
	seq       uint64
}

var _ Publisher = (*Dispatcher)(nil)

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]subscription)}
}

// AddListener subscribes l to name. Higher priorities run first; equal
// priorities run in registration order.
func (d *Dispatcher) AddListener(name string, l Listener, priority int) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	subs := append(d.listeners[name], subscription{listener: l, priority: priority, seq: d.seq})
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority > subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
	d.listeners[name] = subs
}

// HasListeners reports whether anything subscribed to name.
func (d *Dispatcher) HasListeners(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name]) > 0
}

// Dispatch runs every listener for name in order. The returned event carries
// the (possibly mutated) payload.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload any) (*Event, error) {
	d.mu.RLock()
	subs := make([]subscription, len(d.listeners[name]))
	copy(subs, d.listeners[name])
	d.mu.RUnlock()

	e := &Event{Name: name, Payload: payload}
	for _, s := range subs {
		if err := s.listener(ctx, e); err != nil {
			return e, fmt.Errorf("listener for %s failed: %w", name, err)
		}
		if e.stopped {
			break
		}
	}
	return e, nil
}

// Nop is a Publisher that drops every event.
type Nop struct{}

// Dispatch returns an event with the untouched payload.
func (Nop) Dispatch(_ context.Context, name string, payload any) (*Event, error) {
	return &Event{Name: name, Payload: payload}, nil
}
