package dom

import "golang.org/x/net/html"

// Event types used by the lookup widgets.
const (
	EventInput       = "input"
	EventChange      = "change"
	EventKeyDown     = "keydown"
	EventPointerDown = "pointerdown"
	EventMouseOver   = "mouseover"
	EventClick       = "click"
	EventBlur        = "blur"
	EventFocus       = "focus"
)

// Event is a synthetic DOM event. Detail carries payloads for custom events.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Key           string
	Detail        any
	Bubbles       bool

	stopped   bool
	prevented bool
}

// NewEvent returns a bubbling event, except for focus and blur which stay on
// their target as in browsers.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Bubbles: typ != EventBlur && typ != EventFocus}
}

// KeyEvent returns a keydown event for key ("ArrowDown", "Enter", ...).
func KeyEvent(key string) *Event {
	ev := NewEvent(EventKeyDown)
	ev.Key = key
	return ev
}

// CustomEvent returns a bubbling event carrying detail.
func CustomEvent(typ string, detail any) *Event {
	ev := NewEvent(typ)
	ev.Detail = detail
	return ev
}

// StopPropagation prevents delivery to further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// PreventDefault marks the event as handled.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Listener handles an event.
type Listener func(*Event)

type listener struct {
	fn      Listener
	removed bool
}

// On registers fn for events of typ delivered to n. Attach to Root() to
// observe every bubbling event. The returned func removes the listener.
func (d *Document) On(n *html.Node, typ string, fn Listener) (remove func()) {
	if n == nil || fn == nil {
		return func() {}
	}
	byType, ok := d.listeners[n]
	if !ok {
		byType = make(map[string][]*listener)
		d.listeners[n] = byType
	}
	l := &listener{fn: fn}
	byType[typ] = append(byType[typ], l)

	return func() {
		if l.removed {
			return
		}
		l.removed = true
		byType, ok := d.listeners[n]
		if !ok {
			return
		}
		list := byType[typ]
		for i, candidate := range list {
			if candidate == l {
				byType[typ] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(byType[typ]) == 0 {
			delete(byType, typ)
		}
		if len(byType) == 0 {
			delete(d.listeners, n)
		}
	}
}

// ListenerCount reports how many listeners are registered on n.
func (d *Document) ListenerCount(n *html.Node) int {
	total := 0
	for _, list := range d.listeners[n] {
		total += len(list)
	}
	return total
}

// TotalListeners reports the number of listeners registered in the document.
func (d *Document) TotalListeners() int {
	total := 0
	for n := range d.listeners {
		total += d.ListenerCount(n)
	}
	return total
}

// Dispatch delivers ev to target and, when it bubbles, to each ancestor up
// to the document root. It reports whether no listener prevented default.
func (d *Document) Dispatch(target *html.Node, ev *Event) bool {
	if target == nil || ev == nil {
		return true
	}
	ev.Target = target
	for cur := target; cur != nil; cur = cur.Parent {
		d.deliver(cur, ev)
		if ev.stopped || !ev.Bubbles {
			break
		}
	}
	return !ev.prevented
}

func (d *Document) deliver(n *html.Node, ev *Event) {
	byType, ok := d.listeners[n]
	if !ok {
		return
	}
	list := append([]*listener(nil), byType[ev.Type]...)
	ev.CurrentTarget = n
	for _, l := range list {
		if l.removed {
			continue
		}
		l.fn(ev)
	}
}
