package picker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/hostscope"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
	"github.com/goliatone/go-lookup/pkg/signals"
)

type recordingLookup struct {
	mu      sync.Mutex
	queries []string
	records []query.Record
	hold    chan struct{}
}

func (r *recordingLookup) FetchLookup(ctx context.Context, entity, q string, limit int, endpoint string) []query.Record {
	r.mu.Lock()
	r.queries = append(r.queries, q)
	hold := r.hold
	r.mu.Unlock()
	if hold != nil {
		<-hold
	}
	return r.records
}

func (r *recordingLookup) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func flushPosted(t *testing.T, loop *dom.Loop) {
	t.Helper()
	require.Eventually(t, func() bool { return loop.Pending() > 0 }, time.Second, 2*time.Millisecond)
	loop.Flush()
}

func pressKey(doc *dom.Document, s *Session, key string) {
	doc.Dispatch(s.SearchInput(), dom.KeyEvent(key))
}

func click(doc *dom.Document, s *Session, selector string) {
	doc.Dispatch(doc.QueryIn(s.Dialog(), selector), dom.NewEvent(dom.EventClick))
}

const invoicePage = `<html><body>
<div class="line-item"><button class="open">...</button>
<input id="pid" type="hidden"><input id="pname"><input id="pprice"></div>
</body></html>`

func TestShow_RendersDialogWithoutSearching(t *testing.T) {
	doc := dom.MustParse(invoicePage)
	lookup := &recordingLookup{}
	p := New(hostscope.New(doc), lookup)

	s := p.Show(Options{Entity: "products", Q: "wid"})

	require.True(t, s.IsOpen())
	require.NotEmpty(t, s.ID)
	assert.Same(t, doc.Body(), s.Dialog().Parent)
	assert.Equal(t, "wid", dom.Value(s.SearchInput()))
	assert.Equal(t, s.ID, dom.AttrOr(s.Dialog(), markup.AttrSession, ""))
	assert.Equal(t, 0, doc.Loop().Pending())
	assert.Empty(t, lookup.seen())
	assert.Equal(t, 1, p.Open())

	other := p.Show(Options{Entity: "products"})
	assert.NotEqual(t, s.ID, other.ID)
}

func TestSession_RoundTripPick(t *testing.T) {
	doc := dom.MustParse(invoicePage)
	lookup := &recordingLookup{records: []query.Record{{"id": 7, "label": "Widget", "price": 12.5}}}
	p := New(hostscope.New(doc), lookup)

	counts := map[*html.Node]int{}
	doc.On(doc.Root(), dom.EventChange, func(ev *dom.Event) { counts[ev.Target]++ })
	baseline := doc.TotalListeners()

	s := p.Show(Options{
		Entity:  "products",
		Host:    doc.QuerySelector("button.open"),
		Targets: hostscope.Targets{"id": "#pid", "name": "#pname", "price": "#pprice"},
		Q:       "wid",
	})
	click(doc, s, "."+markup.ClassSearchGo)
	flushPosted(t, doc.Loop())
	require.Len(t, s.Items(), 1)

	pressKey(doc, s, "ArrowDown")
	pressKey(doc, s, "Enter")

	assert.Equal(t, "7", dom.Value(doc.GetElementByID("pid")))
	assert.Equal(t, "Widget", dom.Value(doc.GetElementByID("pname")))
	assert.Equal(t, "12.5", dom.Value(doc.GetElementByID("pprice")))
	for _, id := range []string{"pid", "pname", "pprice"} {
		assert.Equal(t, 1, counts[doc.GetElementByID(id)], "change events on #%s", id)
	}
	assert.Len(t, counts, 3)

	assert.False(t, s.IsOpen())
	assert.Nil(t, doc.QuerySelector("."+markup.ClassModal))
	assert.Equal(t, baseline, doc.TotalListeners())
	assert.Equal(t, 0, p.Open())
}

func TestSession_EnterSearchesWhenTextChanged(t *testing.T) {
	doc := dom.MustParse(invoicePage)
	lookup := &recordingLookup{records: []query.Record{{"id": 1, "label": "Alpha"}, {"id": 2, "label": "Beta"}}}
	p := New(hostscope.New(doc), lookup)
	s := p.Show(Options{Entity: "products"})

	dom.SetValue(s.SearchInput(), "al")
	pressKey(doc, s, "Enter")
	flushPosted(t, doc.Loop())
	pressKey(doc, s, "ArrowDown")
	require.Equal(t, 0, s.ActiveIndex())

	dom.SetValue(s.SearchInput(), "be")
	pressKey(doc, s, "Enter")
	assert.True(t, s.IsOpen(), "changed text searches instead of committing")
	flushPosted(t, doc.Loop())

	assert.Equal(t, []string{"al", "be"}, lookup.seen())
	assert.Equal(t, -1, s.ActiveIndex())

	pressKey(doc, s, "Enter")
	flushPosted(t, doc.Loop())
	assert.Equal(t, []string{"al", "be", "be"}, lookup.seen(), "enter with nothing highlighted searches")
}

func TestSession_PointerCommitWithFailingCallback(t *testing.T) {
	doc := dom.MustParse(`<html><body><table><tbody>
<tr><td><button class="open"></button><input type="hidden" class="pid"></td></tr>
<tr><td><button class="open"></button><input type="hidden" class="pid"></td></tr>
</tbody></table></body></html>`)
	lookup := &recordingLookup{records: []query.Record{{"id": 7, "label": "Widget"}, {"id": 9, "label": "Gizmo"}}}
	bus := signals.NewBus()
	p := New(hostscope.New(doc), lookup, WithBus(bus))
	hosts := doc.QuerySelectorAll("button.open")

	var published []signals.Picked
	bus.Picked.Subscribe(func(pk signals.Picked) { published = append(published, pk) })
	var domPicked *dom.Event
	doc.On(doc.Root(), signals.EventPicked, func(ev *dom.Event) { domPicked = ev })

	s := p.Show(Options{
		Entity:  "products",
		Host:    hosts[1],
		Targets: hostscope.Targets{"id": ".pid"},
		OnPick: func(rec query.Record, host *html.Node) error {
			return errors.New("downstream failed")
		},
	})
	click(doc, s, "."+markup.ClassSearchGo)
	flushPosted(t, doc.Loop())

	row := doc.QueryIn(s.Dialog(), "li[data-lookup-index='1']")
	require.NotNil(t, row)
	doc.Dispatch(row, dom.NewEvent(dom.EventMouseOver))
	assert.Equal(t, 1, s.ActiveIndex())
	doc.Dispatch(row, dom.NewEvent(dom.EventPointerDown))

	pids := doc.QuerySelectorAll(".pid")
	assert.Equal(t, "", dom.Value(pids[0]))
	assert.Equal(t, "9", dom.Value(pids[1]))
	assert.False(t, s.IsOpen())

	require.Len(t, published, 1)
	assert.Same(t, hosts[1], published[0].Source)
	require.NotNil(t, domPicked)
	assert.Same(t, hosts[1], domPicked.Target)
}

func TestSession_CloseDropsLateResults(t *testing.T) {
	doc := dom.MustParse(invoicePage)
	lookup := &recordingLookup{records: []query.Record{{"id": 1, "label": "Late"}}, hold: make(chan struct{})}
	p := New(hostscope.New(doc), lookup)
	s := p.Show(Options{Entity: "products", Q: "late"})

	click(doc, s, "."+markup.ClassSearchGo)
	assert.True(t, s.Searching())
	pressKey(doc, s, "Escape")
	assert.False(t, s.IsOpen())
	assert.Equal(t, 0, doc.TotalListeners())

	close(lookup.hold)
	flushPosted(t, doc.Loop())
	assert.Empty(t, s.Items())
	assert.Nil(t, doc.QuerySelector("."+markup.ClassModal))

	s.Close()
	s.Search()
	assert.Equal(t, 0, doc.Loop().Pending())
}

func TestSession_CloseButton(t *testing.T) {
	doc := dom.MustParse(invoicePage)
	p := New(hostscope.New(doc), &recordingLookup{})
	s := p.Show(Options{Entity: "products"})

	click(doc, s, "."+markup.ClassClose)

	assert.False(t, s.IsOpen())
	assert.Equal(t, 0, p.Open())
	assert.Nil(t, doc.QuerySelector("."+markup.ClassModal))
}
