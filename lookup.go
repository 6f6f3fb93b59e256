package lookup

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/binder"
	"github.com/goliatone/go-lookup/pkg/cache"
	"github.com/goliatone/go-lookup/pkg/discovery"
	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/fetch"
	"github.com/goliatone/go-lookup/pkg/hostscope"
	"github.com/goliatone/go-lookup/pkg/picker"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

// Record aliases query.Record for callers that only import the root package.
type Record = query.Record

// BindOptions aliases binder.Options.
type BindOptions = binder.Options

// ShowOptions aliases picker.Options.
type ShowOptions = picker.Options

// Targets aliases hostscope.Targets.
type Targets = hostscope.Targets

type config struct {
	ctx        context.Context
	logger     logr.Logger
	moduleBase string
	caller     fetch.Caller
	httpClient *http.Client
	timeout    time.Duration
	tenant     string
	cache      *cache.LRU[string, []query.Record]
	capacity   int
	scope      string
}

// Option configures a Lookup.
type Option func(*config)

// WithContext sets the parent context of every background search.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger routes diagnostics from every component to logger.
func WithLogger(logger logr.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithModuleBase sets the prefix of the default lookup endpoint.
func WithModuleBase(base string) Option {
	return func(c *config) {
		c.moduleBase = base
	}
}

// WithCaller replaces the network wrapper.
func WithCaller(caller fetch.Caller) Option {
	return func(c *config) {
		c.caller = caller
	}
}

// WithHTTPClient sets the client used by the default network wrapper.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets the per call timeout of the default network wrapper.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithTenant sends tenant on every lookup request.
func WithTenant(tenant string) Option {
	return func(c *config) {
		c.tenant = tenant
	}
}

// WithCache shares an existing result cache, typically across documents.
func WithCache(shared *cache.LRU[string, []query.Record]) Option {
	return func(c *config) {
		c.cache = shared
	}
}

// WithCacheCapacity sizes the private result cache.
func WithCacheCapacity(capacity int) Option {
	return func(c *config) {
		c.capacity = capacity
	}
}

// WithScopeSelector overrides which ancestors confine scoped writes.
func WithScopeSelector(selector string) Option {
	return func(c *config) {
		c.scope = selector
	}
}

// Lookup wires every component against one document.
type Lookup struct {
	doc      *dom.Document
	bus      *signals.Bus
	logger   logr.Logger
	service  *query.Service
	resolver *hostscope.Resolver
	binder   *binder.Binder
	picker   *picker.Picker
	adapter  *discovery.Adapter

	started bool
	stop    []func()
}

// New builds the lookup layer for doc. Nothing is scanned until Start.
func New(doc *dom.Document, options ...Option) *Lookup {
	cfg := config{
		ctx:      context.Background(),
		logger:   logr.Discard(),
		capacity: cache.DefaultCapacity,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	caller := cfg.caller
	if caller == nil {
		fetchOpts := []fetch.Option{fetch.WithLogger(cfg.logger.WithName("fetch"))}
		if cfg.httpClient != nil {
			fetchOpts = append(fetchOpts, fetch.WithHTTPClient(cfg.httpClient))
		}
		if cfg.timeout > 0 {
			fetchOpts = append(fetchOpts, fetch.WithTimeout(cfg.timeout))
		}
		if cfg.tenant != "" {
			fetchOpts = append(fetchOpts, fetch.WithTenant(cfg.tenant))
		}
		caller = fetch.New(fetchOpts...)
	}
	results := cfg.cache
	if results == nil {
		results = cache.NewLRU[string, []query.Record](cfg.capacity)
	}

	bus := signals.NewBus()
	service := query.NewService(
		query.WithModuleBase(cfg.moduleBase),
		query.WithCaller(caller),
		query.WithCache(results),
		query.WithLogger(cfg.logger.WithName("query")),
	)
	resolver := hostscope.New(doc,
		hostscope.WithScopeSelector(cfg.scope),
		hostscope.WithLogger(cfg.logger.WithName("hostscope")),
	)
	bd := binder.New(resolver, service,
		binder.WithBus(bus),
		binder.WithContext(cfg.ctx),
		binder.WithLogger(cfg.logger.WithName("binder")),
	)
	pk := picker.New(resolver, service,
		picker.WithBus(bus),
		picker.WithContext(cfg.ctx),
		picker.WithLogger(cfg.logger.WithName("picker")),
	)

	return &Lookup{
		doc:      doc,
		bus:      bus,
		logger:   cfg.logger,
		service:  service,
		resolver: resolver,
		binder:   bd,
		picker:   pk,
		adapter:  discovery.New(doc, pk, bd, discovery.WithBus(bus), discovery.WithLogger(cfg.logger.WithName("discovery"))),
	}
}

// Document returns the document the layer is bound to.
func (l *Lookup) Document() *dom.Document { return l.doc }

// Bus exposes the ready, rescan and picked signals.
func (l *Lookup) Bus() *signals.Bus { return l.bus }

// Service exposes the lookup normaliser.
func (l *Lookup) Service() *query.Service { return l.service }

// Adapter exposes the discovery adapter.
func (l *Lookup) Adapter() *discovery.Adapter { return l.adapter }

// Start runs discovery over the document, begins observing it and fires the
// ready signal. Calling it again is a no-op.
func (l *Lookup) Start() {
	if l.started {
		return
	}
	l.started = true
	l.adapter.Start()

	l.stop = append(l.stop, l.doc.On(l.doc.Root(), signals.EventRescan, func(ev *dom.Event) {
		root, _ := ev.Detail.(*html.Node)
		if root == nil {
			root = ev.Target
		}
		l.Rescan(root)
	}))

	l.bus.MarkReady()
	l.doc.Dispatch(l.doc.Root(), dom.CustomEvent(signals.EventReady, nil))
	l.logger.V(1).Info("lookup ready", "wired", l.adapter.Wired())
}

// Stop detaches discovery. Existing bindings keep working.
func (l *Lookup) Stop() {
	l.adapter.Stop()
	for _, cancel := range l.stop {
		cancel()
	}
	l.stop = nil
	l.started = false
}

// Ready is closed once Start has run.
func (l *Lookup) Ready() <-chan struct{} { return l.bus.Ready() }

// Bind attaches inline suggestions to input.
func (l *Lookup) Bind(input *html.Node, entity string, opts BindOptions) (*binder.Binding, error) {
	return l.binder.Bind(input, entity, opts)
}

// Show opens the modal picker.
func (l *Lookup) Show(opts ShowOptions) *picker.Session {
	return l.picker.Show(opts)
}

// FetchLookup searches entity directly. It never fails; errors degrade to an
// empty result.
func (l *Lookup) FetchLookup(ctx context.Context, entity, q string, limit int, endpoint string) []Record {
	return l.service.FetchLookup(ctx, entity, q, limit, endpoint)
}

// Write stores value into the element matching selector, preferring the
// host's row.
func (l *Lookup) Write(host *html.Node, selector, value string) bool {
	return l.resolver.Write(host, selector, value)
}

// Rescan asks discovery to wire marked inputs under root, or the whole
// document when root is nil.
func (l *Lookup) Rescan(root *html.Node) {
	l.bus.Rescan.Publish(root)
}
