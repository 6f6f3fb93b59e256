// Package discovery wires lookup behaviour onto marked inputs: at start,
// for every subtree appended to the document and whenever page logic raises
// a rescan signal.
package discovery

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/binder"
	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/picker"
	"github.com/goliatone/go-lookup/pkg/signals"
)

// unwiredInputs selects marked inputs at or below the context node that have
// not been wired yet.
const unwiredInputs = `descendant-or-self::input[@data-lookup and not(@data-lookup-wired)]`

// Adapter scans for marked inputs.
type Adapter struct {
	doc    *dom.Document
	picker *picker.Picker
	binder *binder.Binder
	bus    *signals.Bus
	logger logr.Logger

	sessions map[*html.Node]*picker.Session
	wired    int
	stop     []func()
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBus subscribes the adapter to rescan signals on bus.
func WithBus(bus *signals.Bus) Option {
	return func(a *Adapter) {
		a.bus = bus
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger logr.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New builds an adapter. bd may be nil, in which case inline inputs fall
// back to a picker trigger.
func New(doc *dom.Document, pk *picker.Picker, bd *binder.Binder, options ...Option) *Adapter {
	a := &Adapter{
		doc:      doc,
		picker:   pk,
		binder:   bd,
		logger:   logr.Discard(),
		sessions: make(map[*html.Node]*picker.Session),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// Wired reports how many inputs the adapter has wired.
func (a *Adapter) Wired() int { return a.wired }

// Start scans the whole document, then keeps scanning appended subtrees and
// rescan signals until Stop.
func (a *Adapter) Start() {
	if len(a.stop) > 0 {
		return
	}
	a.Scan(a.doc.Root())
	a.stop = append(a.stop, a.doc.Observe(func(added *html.Node) { a.Scan(added) }))
	if a.bus != nil {
		a.stop = append(a.stop, a.bus.Rescan.Subscribe(func(root *html.Node) {
			if root == nil {
				root = a.doc.Root()
			}
			a.Scan(root)
		}))
	}
}

// Stop detaches the observer and the rescan subscription.
func (a *Adapter) Stop() {
	for _, cancel := range a.stop {
		cancel()
	}
	a.stop = nil
}

// Scan wires every unwired marked input under root and returns how many it wired.
func (a *Adapter) Scan(root *html.Node) int {
	if root == nil || root.Type != html.ElementNode && root.Type != html.DocumentNode {
		return 0
	}
	inputs, err := htmlquery.QueryAll(root, unwiredInputs)
	if err != nil {
		a.logger.Error(err, "lookup discovery query failed")
		return 0
	}
	count := 0
	for _, input := range inputs {
		if a.wire(input) {
			count++
		}
	}
	if count > 0 {
		a.logger.V(1).Info("lookup inputs wired", "count", count)
	}
	return count
}

func (a *Adapter) wire(input *html.Node) bool {
	if input.Parent == nil || dom.HasAttr(input, markup.AttrWired) {
		return false
	}
	marker, ok := markup.ReadMarker(input)
	if !ok || (marker.Entity == "" && marker.Endpoint == "") {
		return false
	}

	if marker.Inline() && a.binder != nil {
		_, err := a.binder.Bind(input, marker.Entity, binder.Options{
			Endpoint: marker.Endpoint,
			Limit:    marker.Limit,
			Targets:  marker.Targets,
		})
		if err != nil {
			a.logger.Error(err, "lookup inline bind failed", "entity", marker.Entity)
			return false
		}
		dom.SetAttr(input, markup.AttrWired, markup.ModeInline)
		a.wired++
		return true
	}

	button, err := markup.Trigger(marker.Entity)
	var nodes []*html.Node
	if err == nil {
		nodes, err = a.doc.ParseFragment(input.Parent, button)
	}
	if err != nil || len(nodes) == 0 {
		a.logger.Error(err, "lookup trigger could not be rendered", "entity", marker.Entity)
		return false
	}
	trigger := nodes[0]
	dom.SetAttr(input, markup.AttrWired, markup.ModePicker)
	a.doc.InsertAfter(input, trigger)

	open := func(*dom.Event) { a.open(input, marker) }
	a.doc.On(trigger, dom.EventPointerDown, open)
	a.doc.On(trigger, dom.EventClick, open)
	a.wired++
	return true
}

// open shows the picker for input unless a session for it is already shown.
func (a *Adapter) open(input *html.Node, marker markup.Marker) {
	if s, ok := a.sessions[input]; ok && s.IsOpen() {
		return
	}
	targets := marker.Targets.Clone()
	if targets["name"] == "" {
		id := a.doc.EnsureID(input, "lookup-input")
		targets["name"] = `[id="` + strings.ReplaceAll(id, `"`, `\"`) + `"]`
	}
	a.sessions[input] = a.picker.Show(picker.Options{
		Entity:   marker.Entity,
		Endpoint: marker.Endpoint,
		Limit:    marker.Limit,
		Host:     input,
		Targets:  targets,
		Q:        strings.TrimSpace(dom.Value(input)),
	})
}
