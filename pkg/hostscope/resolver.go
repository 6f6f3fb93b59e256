// Package hostscope writes picked values back into the page, confining each
// write to the row (host scope) of the element that triggered the pick.
//
// When a page renders many structurally identical rows, every row carries
// fields matching the same selector. Resolving inside the triggering row
// first is what keeps a pick in row 2 from touching row 1.
package hostscope

import (
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/query"
)

// DefaultScopeSelector lists the containers that qualify as a host scope.
const DefaultScopeSelector = "[data-lookup-scope], tr, .line-item, fieldset, form"

// Targets maps a record key (id, name, price, code or any field path) to the
// selector of the element that receives it.
type Targets map[string]string

// Clone returns a copy without blank entries.
func (t Targets) Clone() Targets {
	out := make(Targets, len(t))
	for key, selector := range t {
		key, selector = strings.TrimSpace(key), strings.TrimSpace(selector)
		if key == "" || selector == "" {
			continue
		}
		out[key] = selector
	}
	return out
}

// Resolver performs scoped writes against one document.
type Resolver struct {
	doc    *dom.Document
	scope  string
	logger logr.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithScopeSelector overrides which ancestors qualify as a host scope.
func WithScopeSelector(selector string) Option {
	return func(r *Resolver) {
		if selector = strings.TrimSpace(selector); selector != "" {
			r.scope = selector
		}
	}
}

// WithLogger attaches a logger for unresolved targets.
func WithLogger(logger logr.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New builds a resolver for doc.
func New(doc *dom.Document, options ...Option) *Resolver {
	r := &Resolver{
		doc:    doc,
		scope:  DefaultScopeSelector,
		logger: logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Document returns the document the resolver writes into.
func (r *Resolver) Document() *dom.Document { return r.doc }

// Scope returns host when it qualifies as a scope, otherwise its nearest
// qualifying ancestor, otherwise host itself.
func (r *Resolver) Scope(host *html.Node) *html.Node {
	if host == nil {
		return nil
	}
	if scope := r.doc.Closest(host, r.scope); scope != nil {
		return scope
	}
	return host
}

// Resolve finds selector inside host's scope, falling back to the document.
func (r *Resolver) Resolve(host *html.Node, selector string) *html.Node {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil
	}
	if scope := r.Scope(host); scope != nil {
		if n := r.doc.QueryIn(scope, selector); n != nil {
			return n
		}
	}
	return r.doc.QuerySelector(selector)
}

// Write stores value on the resolved element (form value for controls, text
// content otherwise) and dispatches one bubbling change event on it.
func (r *Resolver) Write(host *html.Node, selector, value string) bool {
	target := r.Resolve(host, selector)
	if target == nil {
		r.logger.V(1).Info("lookup target not found", "selector", selector)
		return false
	}
	r.Set(target, value)
	return true
}

// Set writes value into target directly and dispatches change.
func (r *Resolver) Set(target *html.Node, value string) {
	if dom.IsValueBearing(target) {
		dom.SetValue(target, value)
	} else {
		dom.SetText(target, value)
	}
	r.doc.Dispatch(target, dom.NewEvent(dom.EventChange))
}

// WriteTargets writes every target of rec in key order and returns the keys
// that resolved to an element.
func (r *Resolver) WriteTargets(host *html.Node, targets Targets, rec query.Record) []string {
	if len(targets) == 0 {
		return nil
	}
	keys := make([]string, 0, len(targets))
	for key := range targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	written := make([]string, 0, len(keys))
	for _, key := range keys {
		if r.Write(host, targets[key], rec.Target(key)) {
			written = append(written, key)
		}
	}
	return written
}
