// Package picker implements the modal search dialog used when an input is
// not itself the live-search surface.
package picker

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/hostscope"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

// PickFunc receives the committed record and the host anchor.
type PickFunc func(rec query.Record, host *html.Node) error

// Options describes one picker invocation.
type Options struct {
	Entity     string
	Endpoint   string
	Limit      int
	Title      string
	Host       *html.Node
	Targets    hostscope.Targets
	Q          string
	OnPick     PickFunc
	RenderItem markup.RenderFunc
}

// Picker opens sessions against one document.
type Picker struct {
	doc      *dom.Document
	resolver *hostscope.Resolver
	lookup   query.Lookuper
	bus      *signals.Bus
	logger   logr.Logger
	ctx      context.Context
	sessions map[string]*Session
}

// Option configures a Picker.
type Option func(*Picker)

// WithBus publishes picked records on bus.
func WithBus(bus *signals.Bus) Option {
	return func(p *Picker) {
		if bus != nil {
			p.bus = bus
		}
	}
}

// WithLogger sets the picker logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Picker) {
		p.logger = logger
	}
}

// WithContext sets the parent context of every search.
func WithContext(ctx context.Context) Option {
	return func(p *Picker) {
		if ctx != nil {
			p.ctx = ctx
		}
	}
}

// New builds a picker writing through resolver and searching through lookup.
func New(resolver *hostscope.Resolver, lookup query.Lookuper, options ...Option) *Picker {
	p := &Picker{
		doc:      resolver.Document(),
		resolver: resolver,
		lookup:   lookup,
		bus:      signals.NewBus(),
		logger:   logr.Discard(),
		ctx:      context.Background(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Open reports how many sessions are currently shown.
func (p *Picker) Open() int { return len(p.sessions) }

// Show renders a dialog for opts and returns its session. The search box is
// pre-filled with opts.Q; nothing is fetched until the user searches.
func (p *Picker) Show(opts Options) *Session {
	opts.Entity = strings.TrimSpace(opts.Entity)
	if opts.Limit <= 0 {
		opts.Limit = query.DefaultLimit
	}
	opts.Targets = opts.Targets.Clone()

	s := &Session{
		ID:     uuid.NewString(),
		picker: p,
		opts:   opts,
		open:   true,
	}
	if s.render(); !s.open {
		return s
	}
	p.sessions[s.ID] = s
	p.logger.V(1).Info("lookup picker opened", "entity", opts.Entity, "session", s.ID)
	return s
}
