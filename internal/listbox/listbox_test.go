package listbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/markup"
	"github.com/goliatone/go-lookup/pkg/query"
)

func newListbox(t *testing.T) (*dom.Document, *Listbox) {
	t.Helper()
	doc := dom.MustParse(`<html><body><div id="host"><ul class="lookup-suggestions"></ul></div></body></html>`)
	ul := doc.QuerySelector("ul")
	require.NotNil(t, ul)
	return doc, New(doc, ul, nil)
}

func TestListbox_MoveClampsToRows(t *testing.T) {
	doc, box := newListbox(t)
	require.NoError(t, box.SetItems([]query.Record{{"id": 1, "label": "A"}, {"id": 2, "label": "B"}, {"id": 3, "label": "C"}}))

	assert.Equal(t, -1, box.ActiveIndex())
	assert.Equal(t, 0, box.Move(-1), "ArrowUp from nothing clamps to the first row")
	assert.Equal(t, 1, box.Move(1))
	assert.Equal(t, 2, box.Move(1))
	assert.Equal(t, 2, box.Move(1), "ArrowDown past the end clamps")

	active := doc.QuerySelectorAll("li." + markup.ClassActive)
	require.Len(t, active, 1)
	assert.Equal(t, "2", dom.AttrOr(active[0], markup.AttrIndex, ""))

	rec, ok := box.Active()
	require.True(t, ok)
	assert.Equal(t, "C", rec.Label())
}

func TestListbox_EmptyState(t *testing.T) {
	doc, box := newListbox(t)
	require.NoError(t, box.SetItems([]query.Record{{"id": 1, "label": "A"}}))
	require.NoError(t, box.SetItems(nil))

	assert.Equal(t, -1, box.Move(1))
	_, ok := box.Active()
	assert.False(t, ok)
	assert.Len(t, doc.QuerySelectorAll("li."+markup.ClassItem), 0)
	empty := doc.QuerySelector("li." + markup.ClassEmpty)
	require.NotNil(t, empty)
	assert.Equal(t, markup.EmptyText, dom.Text(empty))
}

func TestListbox_IndexOfNestedTarget(t *testing.T) {
	doc, box := newListbox(t)
	require.NoError(t, box.SetItems([]query.Record{{"id": 1, "label": "A"}, {"id": 2, "label": "B", "code": "B-2"}}))

	code := doc.QuerySelector("li[data-lookup-index='1'] .lookup-code")
	require.NotNil(t, code)
	idx, ok := box.IndexOf(code)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = box.IndexOf(doc.GetElementByID("host"))
	assert.False(t, ok)
}
