package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCall_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `[{"id":7,"label":"Widget"}]`)
	}))
	defer srv.Close()

	resp, err := New().Call(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.JSON {
		t.Fatalf("expected structured response")
	}
	want := []any{map[string]any{"id": json.Number("7"), "label": "Widget"}}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
}

func TestCall_VendorJSONSuffixIsStructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = io.WriteString(w, `{"items":[]}`)
	}))
	defer srv.Close()

	resp, err := New().Call(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.JSON {
		t.Fatalf("expected +json media type to be decoded")
	}
}

func TestCall_PlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := New().Call(context.Background(), srv.URL, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.JSON || resp.Text != "ok" || resp.Data != nil {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestCall_TimeoutIsDistinct(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(WithTimeout(20*time.Millisecond)).Call(context.Background(), srv.URL, Request{})
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T: %v", err, err)
	}
	if !IsTimeout(err) {
		t.Fatalf("expected IsTimeout to report true")
	}
}

func TestCall_HTTPErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"tenant mismatch"}`)
	}))
	defer srv.Close()

	_, err := New().Call(context.Background(), srv.URL, Request{})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", httpErr.Status)
	}
	if diff := cmp.Diff(map[string]any{"error": "tenant mismatch"}, httpErr.Body); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestCall_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items": [`)
	}))
	defer srv.Close()

	_, err := New().Call(context.Background(), srv.URL, Request{})
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedResponseError, got %T: %v", err, err)
	}
}

func TestCall_BodyEncoding(t *testing.T) {
	type seen struct {
		method      string
		contentType string
		body        string
	}
	var got seen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got = seen{method: r.Method, contentType: r.Header.Get("Content-Type"), body: string(data)}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := New()
	if _, err := client.Call(context.Background(), srv.URL, Request{Body: map[string]any{"q": "wid"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.method != http.MethodPost || got.contentType != "application/json" || strings.TrimSpace(got.body) != `{"q":"wid"}` {
		t.Fatalf("unexpected map body request: %#v", got)
	}

	if _, err := client.Call(context.Background(), srv.URL, Request{Method: http.MethodPut, Body: strings.NewReader("raw")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.method != http.MethodPut || got.contentType != "" || got.body != "raw" {
		t.Fatalf("expected reader body to pass through untouched, got %#v", got)
	}
}

func TestCall_SendsTenantAndDefaultHeaders(t *testing.T) {
	var tenant, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant = r.Header.Get(TenantHeader)
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := New(WithTenant("acme")).Call(context.Background(), srv.URL, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant != "acme" {
		t.Fatalf("expected tenant header, got %q", tenant)
	}
	if !strings.Contains(accept, "application/json") {
		t.Fatalf("expected JSON accept header, got %q", accept)
	}
}
