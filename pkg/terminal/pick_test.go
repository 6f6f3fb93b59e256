package terminal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-lookup/pkg/query"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	inputPos  int
	selectPos int

	prompts []InputConfig
	selects []SelectConfig
	info    []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", ErrAborted
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selects = append(s.selects, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, ErrAborted
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

type scriptedSearch struct {
	results map[string][]query.Record
	fail    map[string]error
	queries []string
}

func (s *scriptedSearch) Lookup(_ context.Context, entity, q string, limit int, endpoint string) ([]query.Record, error) {
	s.queries = append(s.queries, q)
	if err := s.fail[q]; err != nil {
		return nil, err
	}
	return s.results[q], nil
}

func TestPick_UsesInitialQueryAndReturnsSelection(t *testing.T) {
	search := &scriptedSearch{results: map[string][]query.Record{
		"wid": {{"id": 7, "label": "Widget", "sku": "W-7"}, {"id": 8, "label": "Widget", "description": "blue"}},
	}}
	driver := &stubDriver{selectIdx: []int{1}}

	rec, err := NewPicker(search, driver).Pick(context.Background(), Request{Entity: "products", Q: " wid "})

	require.NoError(t, err)
	assert.Equal(t, "8", rec.ID())
	assert.Empty(t, driver.prompts, "initial query skips the input prompt")
	assert.Equal(t, []string{"wid"}, search.queries)
	require.Len(t, driver.selects, 1)
	assert.Equal(t, []string{"1. Widget [W-7]", "2. Widget - blue", SearchAgain}, driver.selects[0].Options)
}

func TestPick_SearchAgainAndEmptyResults(t *testing.T) {
	search := &scriptedSearch{results: map[string][]query.Record{
		"a":  {{"id": 1, "label": "Alpha"}},
		"be": {{"id": 2, "label": "Beta"}},
	}}
	driver := &stubDriver{inputs: []string{"a", "zzz", "be"}, selectIdx: []int{1, 0}}

	rec, err := NewPicker(search, driver).Pick(context.Background(), Request{Entity: "products"})

	require.NoError(t, err)
	assert.Equal(t, "Beta", rec.Label())
	assert.Equal(t, []string{"a", "zzz", "be"}, search.queries)
	assert.Equal(t, []string{"No matches"}, driver.info)
	require.Len(t, driver.prompts, 3)
	assert.Equal(t, "a", driver.prompts[1].Default, "search again keeps the previous query")
}

func TestPick_FailureIsReportedAndRetried(t *testing.T) {
	search := &scriptedSearch{
		results: map[string][]query.Record{"ok": {{"id": 3, "label": "Gamma"}}},
		fail:    map[string]error{"boom": errors.New("status 500")},
	}
	driver := &stubDriver{inputs: []string{"ok"}, selectIdx: []int{0}}

	rec, err := NewPicker(search, driver).Pick(context.Background(), Request{Entity: "products", Q: "boom"})

	require.NoError(t, err)
	assert.Equal(t, "3", rec.ID())
	require.Len(t, driver.info, 1)
	assert.Contains(t, driver.info[0], "status 500")
}

func TestPick_Abort(t *testing.T) {
	search := &scriptedSearch{}
	driver := &stubDriver{}

	_, err := NewPicker(search, driver).Pick(context.Background(), Request{Entity: "products"})
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, search.queries)

	_, err = NewPicker(nil, driver).Pick(context.Background(), Request{})
	assert.Error(t, err)
}

func TestPick_OutOfRangeSelection(t *testing.T) {
	search := &scriptedSearch{results: map[string][]query.Record{"x": {{"id": 1, "label": "X"}}}}
	driver := &stubDriver{selectIdx: []int{-1}}

	_, err := NewPicker(search, driver).Pick(context.Background(), Request{Entity: "products", Q: "x"})
	assert.ErrorIs(t, err, ErrNoSelection)
}
