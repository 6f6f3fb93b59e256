// Package binder attaches type-ahead suggestions to a single input.
//
// Every binding keeps its own state: the last submitted query, the displayed
// records, the highlighted row and a request token. Searches run on a
// goroutine and post their result back to the document loop, where a result
// is applied only if its token is still the newest one issued.
package binder

import (
	"context"
	"errors"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/hostscope"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

var (
	// ErrNotInput is returned when Bind receives something other than a text control.
	ErrNotInput = errors.New("binder: element is not an input")
	// ErrAlreadyBound is returned when the input already has a binding.
	ErrAlreadyBound = errors.New("binder: input already bound")
)

// PickFunc receives the committed record and the bound input.
type PickFunc func(rec query.Record, input *html.Node) error

// Options configures one binding.
type Options struct {
	Endpoint   string
	Limit      int
	MinChars   int
	Targets    hostscope.Targets
	OnPick     PickFunc
	RenderItem markup.RenderFunc
}

// Binder creates bindings against one document.
type Binder struct {
	doc      *dom.Document
	resolver *hostscope.Resolver
	lookup   query.Lookuper
	bus      *signals.Bus
	logger   logr.Logger
	ctx      context.Context
	bindings map[*html.Node]*Binding
}

// Option configures a Binder.
type Option func(*Binder)

// WithBus publishes picked records on bus.
func WithBus(bus *signals.Bus) Option {
	return func(b *Binder) {
		if bus != nil {
			b.bus = bus
		}
	}
}

// WithLogger sets the logger used for dropped responses and callback failures.
func WithLogger(logger logr.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// WithContext sets the parent context of every search.
func WithContext(ctx context.Context) Option {
	return func(b *Binder) {
		if ctx != nil {
			b.ctx = ctx
		}
	}
}

// New builds a binder writing through resolver and searching through lookup.
func New(resolver *hostscope.Resolver, lookup query.Lookuper, options ...Option) *Binder {
	b := &Binder{
		doc:      resolver.Document(),
		resolver: resolver,
		lookup:   lookup,
		bus:      signals.NewBus(),
		logger:   logr.Discard(),
		ctx:      context.Background(),
		bindings: make(map[*html.Node]*Binding),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Binding returns the live binding of input, if any.
func (b *Binder) Binding(input *html.Node) (*Binding, bool) {
	binding, ok := b.bindings[input]
	return binding, ok
}

// Bind attaches suggestions for entity to input.
func (b *Binder) Bind(input *html.Node, entity string, opts Options) (*Binding, error) {
	if !dom.IsElement(input, "input") && !dom.IsElement(input, "textarea") {
		return nil, ErrNotInput
	}
	if _, ok := b.bindings[input]; ok {
		return nil, ErrAlreadyBound
	}
	entity = strings.TrimSpace(entity)
	if entity == "" && strings.TrimSpace(opts.Endpoint) == "" {
		return nil, query.ErrNoEntity
	}
	if opts.Limit <= 0 {
		opts.Limit = query.DefaultLimit
	}
	if opts.MinChars <= 0 {
		opts.MinChars = 1
	}
	opts.Targets = opts.Targets.Clone()

	container := input.Parent
	if container == nil {
		container = input
	}

	binding := &Binding{
		binder:    b,
		input:     input,
		container: container,
		entity:    entity,
		opts:      opts,
		bound:     true,
	}
	binding.listen()
	b.bindings[input] = binding
	return binding, nil
}
