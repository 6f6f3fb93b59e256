package binder

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/internal/listbox"
	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

// State is the phase a binding is in.
type State int

const (
	Idle State = iota
	Searching
	Showing
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Showing:
		return "showing"
	default:
		return "idle"
	}
}

// Binding is the type-ahead state of one input.
type Binding struct {
	binder    *Binder
	input     *html.Node
	container *html.Node
	entity    string
	opts      Options

	box       *listbox.Listbox
	items     []query.Record
	hasResult bool
	lastQuery string
	token     uint64
	searching bool
	bound     bool

	removers []func()
	listRm   []func()
}

// Input returns the bound element.
func (b *Binding) Input() *html.Node { return b.input }

// Entity returns the searched entity.
func (b *Binding) Entity() string { return b.entity }

// State reports the current phase.
func (b *Binding) State() State {
	switch {
	case b.searching:
		return Searching
	case b.box != nil:
		return Showing
	default:
		return Idle
	}
}

// Items returns the current result set.
func (b *Binding) Items() []query.Record { return b.items }

// ActiveIndex returns the highlighted row or -1.
func (b *Binding) ActiveIndex() int {
	if b.box == nil {
		return -1
	}
	return b.box.ActiveIndex()
}

// List returns the rendered list element while it is shown.
func (b *Binding) List() *html.Node {
	if b.box == nil {
		return nil
	}
	return b.box.Node()
}

// Unbind detaches every listener and discards in-flight results.
func (b *Binding) Unbind() {
	if !b.bound {
		return
	}
	b.bound = false
	b.token++
	b.searching = false
	b.hide()
	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil
	delete(b.binder.bindings, b.input)
}

func (b *Binding) listen() {
	doc := b.binder.doc
	b.removers = append(b.removers,
		doc.On(b.input, dom.EventInput, func(*dom.Event) { b.onInput() }),
		doc.On(b.input, dom.EventKeyDown, b.onKeyDown),
		doc.On(b.input, dom.EventBlur, func(*dom.Event) { b.hide() }),
		doc.On(doc.Root(), dom.EventPointerDown, b.onDocumentPointerDown),
	)
}

func (b *Binding) onInput() {
	q := strings.TrimSpace(dom.Value(b.input))
	if q == "" || utf8.RuneCountInString(q) < b.opts.MinChars {
		b.clear()
		return
	}
	if q == b.lastQuery {
		if b.hasResult && !b.searching {
			b.show()
		}
		return
	}
	b.search(q)
}

func (b *Binding) search(q string) {
	b.lastQuery = q
	b.token++
	b.searching = true
	token := b.token

	lookup := b.binder.lookup
	loop := b.binder.doc.Loop()
	ctx := b.binder.ctx
	entity, limit, endpoint := b.entity, b.opts.Limit, b.opts.Endpoint
	go func() {
		records := lookup.FetchLookup(ctx, entity, q, limit, endpoint)
		loop.Post(func() { b.apply(token, q, records) })
	}()
}

func (b *Binding) apply(token uint64, q string, records []query.Record) {
	if !b.bound || token != b.token {
		b.binder.logger.V(1).Info("lookup response dropped", "entity", b.entity, "q", q)
		return
	}
	b.searching = false
	b.items = records
	b.hasResult = true
	b.show()
}

func (b *Binding) show() {
	doc := b.binder.doc
	if b.box == nil {
		ul := doc.CreateElement("ul", html.Attribute{Key: "class", Val: markup.ClassSuggestions})
		doc.InsertAfter(b.input, ul)
		b.box = listbox.New(doc, ul, b.opts.RenderItem)
		b.listRm = append(b.listRm,
			doc.On(ul, dom.EventMouseOver, b.onListHover),
			doc.On(ul, dom.EventPointerDown, b.onListPointerDown),
		)
	}
	if err := b.box.SetItems(b.items); err != nil {
		b.binder.logger.Error(err, "lookup suggestions could not be rendered", "entity", b.entity)
	}
}

func (b *Binding) hide() {
	if b.box == nil {
		return
	}
	for _, remove := range b.listRm {
		remove()
	}
	b.listRm = nil
	b.binder.doc.Remove(b.box.Node())
	b.box = nil
}

func (b *Binding) clear() {
	b.token++
	b.searching = false
	b.items = nil
	b.hasResult = false
	b.lastQuery = ""
	b.hide()
}

func (b *Binding) onKeyDown(ev *dom.Event) {
	if b.box == nil {
		return
	}
	switch ev.Key {
	case "ArrowDown":
		ev.PreventDefault()
		b.box.Move(1)
	case "ArrowUp":
		ev.PreventDefault()
		b.box.Move(-1)
	case "Enter":
		rec, ok := b.box.Active()
		if !ok {
			return
		}
		ev.PreventDefault()
		b.commit(rec)
	case "Escape":
		ev.PreventDefault()
		b.clear()
	}
}

func (b *Binding) onListHover(ev *dom.Event) {
	if idx, ok := b.box.IndexOf(ev.Target); ok {
		b.box.SetActive(idx)
	}
}

func (b *Binding) onListPointerDown(ev *dom.Event) {
	idx, ok := b.box.IndexOf(ev.Target)
	if !ok {
		return
	}
	ev.PreventDefault()
	ev.StopPropagation()
	b.commit(b.box.Items()[idx])
}

func (b *Binding) onDocumentPointerDown(ev *dom.Event) {
	if b.box == nil || dom.Contains(b.container, ev.Target) {
		return
	}
	b.hide()
}

func (b *Binding) commit(rec query.Record) {
	owner := b.binder
	if b.opts.OnPick != nil {
		err := signals.Guard(b.entity, func() error { return b.opts.OnPick(rec, b.input) })
		if err != nil {
			owner.logger.Error(err, "lookup pick callback failed", "entity", b.entity)
		}
	}

	owner.resolver.WriteTargets(b.input, b.opts.Targets, rec)
	dom.SetValue(b.input, rec.Label())
	owner.doc.Dispatch(b.input, dom.NewEvent(dom.EventChange))

	owner.bus.Picked.Publish(signals.Picked{Entity: b.entity, Record: rec, Source: b.input})
	owner.doc.Dispatch(b.input, dom.CustomEvent(signals.EventPicked, rec))

	b.clear()
}
