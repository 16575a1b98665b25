package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fd1az/contentnft-gateway/business/ledger/domain"
)

// Handler receives an emitted event. Handlers run on the goroutine that
// calls Emit and hold up later events while they run.
type Handler func(ctx context.Context, ev domain.Event)

type listener struct {
	id      uint64
	names   map[string]struct{} // empty matches every event
	handler Handler
}

func (l *listener) matches(name string) bool {
	if len(l.names) == 0 {
		return true
	}
	_, ok := l.names[name]
	return ok
}

// Emitter fans events out to registered listeners.
type Emitter struct {
	mu        sync.RWMutex
	listeners []*listener
	nextID    uint64

	emitted atomic.Uint64
	dropped atomic.Uint64
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// On registers handler for the named events, or for every event when no
// names are given. The returned func removes the registration.
func (e *Emitter) On(handler Handler, names ...string) (off func()) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	e.mu.Lock()
	e.nextID++
	l := &listener{id: e.nextID, names: set, handler: handler}
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(l.id) })
	}
}

// Listen returns a buffered channel receiving the named events. Events
// arriving while the buffer is full are dropped and counted.
func (e *Emitter) Listen(buffer int, names ...string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, buffer)

	var mu sync.Mutex
	closed := false

	off := e.On(func(_ context.Context, ev domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			e.dropped.Add(1)
		}
	}, names...)

	return ch, func() {
		off()
		mu.Lock()
		if !closed {
			closed = true
			close(ch)
		}
		mu.Unlock()
	}
}

// Emit delivers ev to every matching listener.
func (e *Emitter) Emit(ctx context.Context, ev domain.Event) {
	e.mu.RLock()
	targets := make([]*listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		if l.matches(ev.Name) {
			targets = append(targets, l)
		}
	}
	e.mu.RUnlock()

	e.emitted.Add(1)
	for _, l := range targets {
		l.handler(ctx, ev)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *Emitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// Stats returns how many events were emitted and dropped.
func (e *Emitter) Stats() (emitted, dropped uint64) {
	return e.emitted.Load(), e.dropped.Load()
}

func (e *Emitter) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
			return
		}
	}
}
