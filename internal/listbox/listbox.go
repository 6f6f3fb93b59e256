// Package listbox manages a rendered suggestion list: its rows, the
// highlighted index and mapping event targets back to records.
package listbox

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
)

// Listbox owns the children of one list element.
type Listbox struct {
	doc    *dom.Document
	node   *html.Node
	render markup.RenderFunc
	items  []query.Record
	active int
}

// New wraps node, which must be a ul element owned by doc.
func New(doc *dom.Document, node *html.Node, render markup.RenderFunc) *Listbox {
	return &Listbox{doc: doc, node: node, render: render, active: -1}
}

// Node returns the list element.
func (l *Listbox) Node() *html.Node { return l.node }

// Items returns the displayed records.
func (l *Listbox) Items() []query.Record { return l.items }

// Len reports the number of displayed records.
func (l *Listbox) Len() int { return len(l.items) }

// ActiveIndex returns the highlighted row or -1.
func (l *Listbox) ActiveIndex() int { return l.active }

// Active returns the highlighted record.
func (l *Listbox) Active() (query.Record, bool) {
	if l.active < 0 || l.active >= len(l.items) {
		return nil, false
	}
	return l.items[l.active], true
}

// SetItems replaces the rows. Nothing is highlighted afterwards; an empty
// slice renders the empty state row. On error the list is left empty.
func (l *Listbox) SetItems(items []query.Record) error {
	l.items = items
	l.active = -1

	dom.SetText(l.node, "")
	list, err := markup.SuggestionList(items, -1, l.render, "")
	if err != nil {
		l.items = nil
		return err
	}
	nodes, err := l.doc.ParseFragment(l.node.Parent, list)
	if err != nil {
		l.items = nil
		return err
	}
	for _, root := range nodes {
		for row := root.FirstChild; row != nil; {
			next := row.NextSibling
			root.RemoveChild(row)
			l.node.AppendChild(row)
			row = next
		}
	}
	return nil
}

// Move shifts the highlight by delta, clamped to the rows, and returns the
// new index.
func (l *Listbox) Move(delta int) int {
	if len(l.items) == 0 {
		return -1
	}
	return l.SetActive(l.active + delta)
}

// SetActive highlights row i, clamped to the rows.
func (l *Listbox) SetActive(i int) int {
	if len(l.items) == 0 {
		return -1
	}
	i = max(0, min(i, len(l.items)-1))
	for row := l.node.FirstChild; row != nil; row = row.NextSibling {
		idx, ok := rowIndex(row)
		if !ok {
			continue
		}
		on := idx == i
		dom.ToggleClass(row, markup.ClassActive, on)
		if on {
			dom.SetAttr(row, "aria-selected", "true")
		} else {
			dom.RemoveAttr(row, "aria-selected")
		}
	}
	l.active = i
	return i
}

// IndexOf maps an event target inside the list to its row index.
func (l *Listbox) IndexOf(target *html.Node) (int, bool) {
	row := l.doc.Closest(target, "li."+markup.ClassItem)
	if row == nil || !dom.Contains(l.node, row) {
		return -1, false
	}
	idx, ok := rowIndex(row)
	if !ok || idx >= len(l.items) {
		return -1, false
	}
	return idx, true
}

func rowIndex(row *html.Node) (int, bool) {
	raw, ok := dom.Attr(row, markup.AttrIndex)
	if !ok {
		return -1, false
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return -1, false
	}
	return idx, true
}
