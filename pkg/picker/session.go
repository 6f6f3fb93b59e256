package picker

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/internal/listbox"
	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

// Session is one open dialog.
type Session struct {
	ID string

	picker *Picker
	opts   Options

	dialog *html.Node
	search *html.Node
	box    *listbox.Listbox

	searched  string
	hasResult bool
	token     uint64
	searching bool
	open      bool
	removers  []func()
}

// Dialog returns the dialog root while the session is open.
func (s *Session) Dialog() *html.Node { return s.dialog }

// SearchInput returns the dialog's search box.
func (s *Session) SearchInput() *html.Node { return s.search }

// IsOpen reports whether the dialog is still shown.
func (s *Session) IsOpen() bool { return s.open }

// Searching reports whether a search is in flight.
func (s *Session) Searching() bool { return s.searching }

// Items returns the last applied result set.
func (s *Session) Items() []query.Record {
	if s.box == nil {
		return nil
	}
	return s.box.Items()
}

// ActiveIndex returns the highlighted row or -1.
func (s *Session) ActiveIndex() int {
	if s.box == nil {
		return -1
	}
	return s.box.ActiveIndex()
}

func (s *Session) render() {
	p := s.picker
	doc := p.doc
	body := doc.Body()
	dialog, err := markup.Dialog(markup.DialogData{
		Session: s.ID,
		Entity:  s.opts.Entity,
		Title:   s.opts.Title,
		Query:   s.opts.Q,
	})
	var nodes []*html.Node
	if err == nil {
		nodes, err = doc.ParseFragment(body, dialog)
	}
	if err != nil || len(nodes) == 0 {
		p.logger.Error(err, "lookup picker dialog could not be rendered", "entity", s.opts.Entity)
		s.open = false
		return
	}
	s.dialog = nodes[0]
	doc.AppendChild(body, s.dialog)

	s.search = doc.QueryIn(s.dialog, "."+markup.ClassSearchInput)
	s.box = listbox.New(doc, doc.QueryIn(s.dialog, "ul."+markup.ClassResults), s.opts.RenderItem)

	s.removers = append(s.removers,
		doc.On(s.dialog, dom.EventKeyDown, s.onKeyDown),
		doc.On(doc.QueryIn(s.dialog, "."+markup.ClassSearchGo), dom.EventClick, func(*dom.Event) { s.Search() }),
		doc.On(doc.QueryIn(s.dialog, "."+markup.ClassClose), dom.EventClick, func(*dom.Event) { s.Close() }),
		doc.On(s.box.Node(), dom.EventMouseOver, s.onListHover),
		doc.On(s.box.Node(), dom.EventPointerDown, s.onListPointerDown),
	)
}

// Search runs the text of the search box. Results arriving after a newer
// search, or after the dialog closed, are dropped.
func (s *Session) Search() {
	if !s.open {
		return
	}
	q := strings.TrimSpace(dom.Value(s.search))
	s.searched = q
	s.token++
	s.searching = true
	token := s.token

	p := s.picker
	loop := p.doc.Loop()
	entity, limit, endpoint := s.opts.Entity, s.opts.Limit, s.opts.Endpoint
	go func() {
		records := p.lookup.FetchLookup(p.ctx, entity, q, limit, endpoint)
		loop.Post(func() { s.apply(token, records) })
	}()
}

func (s *Session) apply(token uint64, records []query.Record) {
	if !s.open || token != s.token {
		s.picker.logger.V(1).Info("lookup picker response dropped", "session", s.ID)
		return
	}
	s.searching = false
	s.hasResult = true
	if err := s.box.SetItems(records); err != nil {
		s.picker.logger.Error(err, "lookup picker results could not be rendered", "session", s.ID)
	}
}

func (s *Session) onKeyDown(ev *dom.Event) {
	switch ev.Key {
	case "ArrowDown":
		ev.PreventDefault()
		s.box.Move(1)
	case "ArrowUp":
		ev.PreventDefault()
		s.box.Move(-1)
	case "Enter":
		ev.PreventDefault()
		q := strings.TrimSpace(dom.Value(s.search))
		if rec, ok := s.box.Active(); ok && s.hasResult && q == s.searched {
			s.commit(rec)
			return
		}
		s.Search()
	case "Escape":
		ev.PreventDefault()
		s.Close()
	}
}

func (s *Session) onListHover(ev *dom.Event) {
	if idx, ok := s.box.IndexOf(ev.Target); ok {
		s.box.SetActive(idx)
	}
}

func (s *Session) onListPointerDown(ev *dom.Event) {
	idx, ok := s.box.IndexOf(ev.Target)
	if !ok {
		return
	}
	ev.PreventDefault()
	s.commit(s.box.Items()[idx])
}

func (s *Session) commit(rec query.Record) {
	p := s.picker
	host := s.opts.Host
	p.resolver.WriteTargets(host, s.opts.Targets, rec)

	if s.opts.OnPick != nil {
		err := signals.Guard(s.opts.Entity, func() error { return s.opts.OnPick(rec, host) })
		if err != nil {
			p.logger.Error(err, "lookup pick callback failed", "entity", s.opts.Entity, "session", s.ID)
		}
	}

	p.bus.Picked.Publish(signals.Picked{Entity: s.opts.Entity, Record: rec, Source: host})
	if host != nil {
		p.doc.Dispatch(host, dom.CustomEvent(signals.EventPicked, rec))
	}
	s.Close()
}

// Close removes the dialog and its listeners without picking.
func (s *Session) Close() {
	if !s.open {
		return
	}
	s.open = false
	s.token++
	s.searching = false
	for _, remove := range s.removers {
		remove()
	}
	s.removers = nil
	s.picker.doc.Remove(s.dialog)
	delete(s.picker.sessions, s.ID)
}
