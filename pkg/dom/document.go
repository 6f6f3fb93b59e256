// Package dom is the host environment the lookup widgets run in: an HTML
// element tree parsed with golang.org/x/net/html, CSS selector queries via
// cascadia, a small bubbling event system and a single UI loop.
//
// A Document is not safe for concurrent use. Every mutation and every event
// dispatch must happen on the goroutine that runs its Loop; background work
// hands results back with Loop.Post.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MutationFunc observes nodes inserted into the tree.
type MutationFunc func(added *html.Node)

// Document owns an element tree and its listeners.
type Document struct {
	root      *html.Node
	loop      *Loop
	listeners map[*html.Node]map[string][]*listener
	observers map[int]MutationFunc
	nextObs   int
	nextID    int
	selectors map[string]cascadia.Selector
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root), nil
}

// ParseString is Parse over a string.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// MustParse panics on invalid markup. Intended for tests and fixtures.
func MustParse(markup string) *Document {
	doc, err := ParseString(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		loop:      NewLoop(),
		listeners: make(map[*html.Node]map[string][]*listener),
		observers: make(map[int]MutationFunc),
		selectors: make(map[string]cascadia.Selector),
	}
}

// Root returns the document node. Listeners attached to it see every bubbling event.
func (d *Document) Root() *html.Node { return d.root }

// Loop returns the UI loop that owns this document.
func (d *Document) Loop() *Loop { return d.loop }

// Body returns the body element, or the root when the tree has none.
func (d *Document) Body() *html.Node {
	if body := cascadia.Query(d.root, cascadia.Selector(isBody)); body != nil {
		return body
	}
	return d.root
}

func isBody(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Body
}

// Compile parses a selector, caching the result per document.
func (d *Document) Compile(selector string) (cascadia.Selector, error) {
	selector = strings.TrimSpace(selector)
	if sel, ok := d.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: selector %q: %w", selector, err)
	}
	d.selectors[selector] = sel
	return sel, nil
}

// QuerySelector returns the first element in the whole document matching selector.
func (d *Document) QuerySelector(selector string) *html.Node {
	return d.QueryIn(d.root, selector)
}

// QuerySelectorAll returns every element in the document matching selector.
func (d *Document) QuerySelectorAll(selector string) []*html.Node {
	return d.QueryAllIn(d.root, selector)
}

// QueryIn returns the first descendant of scope matching selector. Invalid
// selectors match nothing.
func (d *Document) QueryIn(scope *html.Node, selector string) *html.Node {
	if scope == nil {
		return nil
	}
	sel, err := d.Compile(selector)
	if err != nil {
		return nil
	}
	return cascadia.Query(scope, sel)
}

// QueryAllIn returns every descendant of scope matching selector.
func (d *Document) QueryAllIn(scope *html.Node, selector string) []*html.Node {
	if scope == nil {
		return nil
	}
	sel, err := d.Compile(selector)
	if err != nil {
		return nil
	}
	return cascadia.QueryAll(scope, sel)
}

// Closest walks from n (inclusive) to the root and returns the first element
// matching selector.
func (d *Document) Closest(n *html.Node, selector string) *html.Node {
	sel, err := d.Compile(selector)
	if err != nil {
		return nil
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && sel.Match(cur) {
			return cur
		}
	}
	return nil
}

// GetElementByID finds an element by id anywhere in the document.
func (d *Document) GetElementByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	return cascadia.Query(d.root, cascadia.Selector(func(n *html.Node) bool {
		return n.Type == html.ElementNode && AttrOr(n, "id", "") == id
	}))
}

// EnsureID returns the id of n, assigning a generated one when missing.
func (d *Document) EnsureID(n *html.Node, prefix string) string {
	if id := AttrOr(n, "id", ""); id != "" {
		return id
	}
	if prefix == "" {
		prefix = "el"
	}
	for {
		d.nextID++
		id := fmt.Sprintf("%s-%d", prefix, d.nextID)
		if d.GetElementByID(id) == nil {
			SetAttr(n, "id", id)
			return id
		}
	}
}

// CreateElement builds a detached element.
func (d *Document) CreateElement(tag string, attrs ...html.Attribute) *html.Node {
	tag = strings.ToLower(tag)
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     append([]html.Attribute(nil), attrs...),
	}
}

// ParseFragment parses markup in the context of parent and returns the
// detached top level nodes.
func (d *Document) ParseFragment(parent *html.Node, markup string) ([]*html.Node, error) {
	if parent == nil || parent.Type != html.ElementNode {
		parent = d.Body()
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	return nodes, nil
}

// AppendChild attaches child as the last child of parent and notifies observers.
func (d *Document) AppendChild(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	detach(child)
	parent.AppendChild(child)
	d.notify(child)
}

// InsertAfter attaches child right after ref and notifies observers.
func (d *Document) InsertAfter(ref, child *html.Node) {
	if ref == nil || ref.Parent == nil || child == nil {
		return
	}
	detach(child)
	ref.Parent.InsertBefore(child, ref.NextSibling)
	d.notify(child)
}

// Remove detaches n and drops every listener registered inside its subtree.
func (d *Document) Remove(n *html.Node) {
	if n == nil {
		return
	}
	detach(n)
	walk(n, func(node *html.Node) {
		delete(d.listeners, node)
	})
}

// Observe registers fn for insertions. The returned func unregisters it.
func (d *Document) Observe(fn MutationFunc) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	d.nextObs++
	id := d.nextObs
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) notify(added *html.Node) {
	if len(d.observers) == 0 || !d.Attached(added) {
		return
	}
	for _, fn := range d.observers {
		fn(added)
	}
}

// Attached reports whether n is part of this document's tree.
func (d *Document) Attached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// OuterHTML renders n and its subtree.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
