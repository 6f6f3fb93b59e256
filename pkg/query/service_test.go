package query

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lookup/pkg/cache"
	"github.com/goliatone/go-lookup/pkg/fetch"
)

type stubCaller struct {
	mu    sync.Mutex
	calls []string
	resp  *fetch.Response
	err   error
	gate  chan struct{}
}

func (s *stubCaller) Call(ctx context.Context, url string, req fetch.Request) (*fetch.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	return s.resp, s.err
}

func (s *stubCaller) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestRequestURL_DefaultEndpoint(t *testing.T) {
	svc := NewService(WithModuleBase("https://erp.test/pos/"), WithCaller(&stubCaller{}))

	got, err := svc.RequestURL("products", "wid get", 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://erp.test/pos/api/lookup/products?limit=10&q=wid+get"
	if got != want {
		t.Fatalf("unexpected url:\nwant %s\ngot  %s", want, got)
	}
}

func TestRequestURL_OverrideKeepsExistingParams(t *testing.T) {
	svc := NewService(WithCaller(&stubCaller{}))

	got, err := svc.RequestURL("ignored", "a", 5, "https://erp.test/hotel/rooms/search?floor=2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://erp.test/hotel/rooms/search?floor=2&limit=5&q=a"
	if got != want {
		t.Fatalf("unexpected url:\nwant %s\ngot  %s", want, got)
	}
}

func TestFetchLookup_AcceptsArrayAndItemsShapes(t *testing.T) {
	cases := map[string]any{
		"bare array": []any{map[string]any{"id": json.Number("1"), "label": "One"}, "skip-me"},
		"items":      map[string]any{"items": []any{map[string]any{"id": json.Number("1"), "label": "One"}}},
		"data":       map[string]any{"data": []any{map[string]any{"id": json.Number("1"), "label": "One"}}},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			caller := &stubCaller{resp: &fetch.Response{Status: 200, JSON: true, Data: payload}}
			svc := NewService(WithModuleBase("http://x"), WithCaller(caller))

			got := svc.FetchLookup(context.Background(), "products", "o", 10, "")
			want := []Record{{"id": json.Number("1"), "label": "One"}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected records (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchLookup_CacheHitSkipsNetwork(t *testing.T) {
	caller := &stubCaller{resp: &fetch.Response{Status: 200, JSON: true, Data: []any{map[string]any{"id": "1"}}}}
	shared := cache.NewLRU[string, []Record](4)
	first := NewService(WithModuleBase("http://x"), WithCaller(caller), WithCache(shared))
	second := NewService(WithModuleBase("http://x"), WithCaller(caller), WithCache(shared))

	first.FetchLookup(context.Background(), "products", "wid", 10, "")
	got := second.FetchLookup(context.Background(), "products", "wid", 10, "")

	if caller.count() != 1 {
		t.Fatalf("expected one network call across instances, got %d", caller.count())
	}
	if len(got) != 1 || got[0].ID() != "1" {
		t.Fatalf("unexpected cached records: %#v", got)
	}
}

func TestFetchLookup_FailuresDegradeToEmpty(t *testing.T) {
	cases := map[string]*stubCaller{
		"timeout":   {err: &fetch.TimeoutError{URL: "u", Timeout: time.Second}},
		"http":      {err: &fetch.HTTPError{URL: "u", Status: 500}},
		"transport": {err: errors.New("connection refused")},
		"malformed": {resp: &fetch.Response{Status: 200, JSON: true, Data: "nope"}},
		"text":      {resp: &fetch.Response{Status: 200, Text: "<html>"}},
	}
	for name, caller := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewService(WithModuleBase("http://x"), WithCaller(caller))
			got := svc.FetchLookup(context.Background(), "products", "a", 10, "")
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil result, got %#v", got)
			}
			if svc.Cache().Len() != 0 {
				t.Fatalf("expected failures not to be cached")
			}
		})
	}
}

func TestFetchLookup_MissingEntityMakesNoCall(t *testing.T) {
	caller := &stubCaller{}
	svc := NewService(WithCaller(caller))
	if got := svc.FetchLookup(context.Background(), " ", "a", 10, ""); len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}
	if caller.count() != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestLookup_CoalescesConcurrentMisses(t *testing.T) {
	caller := &stubCaller{
		resp: &fetch.Response{Status: 200, JSON: true, Data: []any{}},
		gate: make(chan struct{}),
	}
	svc := NewService(WithModuleBase("http://x"), WithCaller(caller))

	var wg sync.WaitGroup
	var done atomic.Int32
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Lookup(context.Background(), "products", "a", 10, ""); err == nil {
				done.Add(1)
			}
		}()
	}
	deadline := time.Now().Add(time.Second)
	for caller.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(caller.gate)
	wg.Wait()

	if caller.count() != 1 {
		t.Fatalf("expected concurrent misses to share one call, got %d", caller.count())
	}
	if done.Load() != 3 {
		t.Fatalf("expected all callers to succeed, got %d", done.Load())
	}
}

func TestFetchLookup_TimeoutAgainstRealServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, "[]")
	}))
	defer srv.Close()
	defer close(release)

	svc := NewService(
		WithModuleBase(srv.URL),
		WithCaller(fetch.New(fetch.WithTimeout(20*time.Millisecond))),
	)
	got := svc.FetchLookup(context.Background(), "products", "slow", 10, "")
	if got == nil || len(got) != 0 {
		t.Fatalf("expected [] on timeout, got %#v", got)
	}
}

func TestRecordAccessors(t *testing.T) {
	r := Record{
		"id":         7,
		"name":       "Widget",
		"sku":        "W-7",
		"unit_price": 12.5,
		"meta":       map[string]any{"color": "red"},
	}
	if r.ID() != "7" || r.Label() != "Widget" || r.Code() != "W-7" || r.Price() != "12.5" {
		t.Fatalf("unexpected accessors: id=%q label=%q code=%q price=%q", r.ID(), r.Label(), r.Code(), r.Price())
	}
	if got := r.Target("meta.color"); got != "red" {
		t.Fatalf("expected nested field, got %q", got)
	}
	if got := (Record{"id": json.Number("9")}).Label(); got != "9" {
		t.Fatalf("expected id fallback label, got %q", got)
	}
	if got := FormatValue(1e21); got != "1000000000000000000000" {
		t.Fatalf("expected plain decimal formatting, got %q", got)
	}
}
