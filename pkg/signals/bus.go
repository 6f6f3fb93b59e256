// Package signals carries the page level notifications of the lookup layer:
// ready (once, after initialisation), rescan (page logic inserted markup) and
// picked (a widget committed a record).
package signals

import (
	"sort"
	"sync"

	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/query"
)

// DOM event names mirrored onto the element tree by the facade.
const (
	EventReady  = "lookup:ready"
	EventRescan = "lookup:rescan"
	EventPicked = "lookup:picked"
)

// Picked describes a committed record.
type Picked struct {
	Entity string
	Record query.Record
	Source *html.Node
}

// Topic is a synchronous publish/subscribe channel. Handlers run on the
// publishing goroutine in subscription order.
type Topic[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns a func that unregisters it.
func (t *Topic[T]) Subscribe(fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	t.mu.Lock()
	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	t.next++
	id := t.next
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Publish delivers v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	ids := make([]int, 0, len(t.subs))
	for id := range t.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]func(T), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, t.subs[id])
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(v)
	}
}

// Len reports the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Bus groups the lookup signals.
type Bus struct {
	Rescan Topic[*html.Node]
	Picked Topic[Picked]

	readyOnce sync.Once
	ready     chan struct{}
	initOnce  sync.Once
}

// NewBus builds a bus whose ready signal has not fired.
func NewBus() *Bus {
	b := &Bus{}
	b.init()
	return b
}

func (b *Bus) init() {
	b.initOnce.Do(func() { b.ready = make(chan struct{}) })
}

// MarkReady fires the ready signal. Later calls are no-ops.
func (b *Bus) MarkReady() {
	b.init()
	b.readyOnce.Do(func() { close(b.ready) })
}

// Ready is closed once MarkReady has been called.
func (b *Bus) Ready() <-chan struct{} {
	b.init()
	return b.ready
}

// IsReady reports whether the ready signal fired.
func (b *Bus) IsReady() bool {
	select {
	case <-b.Ready():
		return true
	default:
		return false
	}
}
