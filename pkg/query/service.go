// Package query resolves entity lookups: it builds the canonical request URL,
// consults the shared result cache, calls the endpoint on a miss and flattens
// the heterogeneous response shapes into records.
package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-lookup/pkg/cache"
	"github.com/goliatone/go-lookup/pkg/fetch"
)

// DefaultLimit is applied when a lookup does not request a positive limit.
const DefaultLimit = 10

// ErrNoEntity is returned by Lookup when neither entity nor endpoint is set.
var ErrNoEntity = errors.New("query: entity or endpoint is required")

// Lookuper is the contract widgets depend on.
type Lookuper interface {
	FetchLookup(ctx context.Context, entity, q string, limit int, endpoint string) []Record
}

// Service is the lookup query normaliser.
type Service struct {
	moduleBase string
	caller     fetch.Caller
	cache      *cache.LRU[string, []Record]
	group      singleflight.Group
	logger     logr.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithModuleBase sets the prefix of the default endpoint,
// {moduleBase}/api/lookup/{entity}.
func WithModuleBase(base string) Option {
	return func(s *Service) {
		s.moduleBase = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithCaller overrides the request primitive.
func WithCaller(caller fetch.Caller) Option {
	return func(s *Service) {
		if caller != nil {
			s.caller = caller
		}
	}
}

// WithCache injects the shared result cache.
func WithCache(c *cache.LRU[string, []Record]) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger attaches a logger for degraded lookups.
func WithLogger(logger logr.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService builds a normaliser. Without options it uses a default fetch
// client and a private cache of cache.DefaultCapacity entries.
func NewService(options ...Option) *Service {
	s := &Service{
		logger: logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.caller == nil {
		s.caller = fetch.New(fetch.WithLogger(s.logger))
	}
	if s.cache == nil {
		s.cache = cache.NewLRU[string, []Record](cache.DefaultCapacity)
	}
	return s
}

// Cache exposes the backing cache.
func (s *Service) Cache() *cache.LRU[string, []Record] {
	return s.cache
}

// FetchLookup never fails: any error degrades to an empty result and a log
// line so a broken search cannot break the host form.
func (s *Service) FetchLookup(ctx context.Context, entity, q string, limit int, endpoint string) []Record {
	records, err := s.Lookup(ctx, entity, q, limit, endpoint)
	if err != nil {
		if !errors.Is(err, ErrNoEntity) {
			s.logger.Info("lookup degraded to empty result", "entity", entity, "query", q, "error", err.Error())
		}
		return []Record{}
	}
	return records
}

// Lookup is FetchLookup with the error exposed. Successful results, empty
// ones included, are cached by full request URL; failures are not.
func (s *Service) Lookup(ctx context.Context, entity, q string, limit int, endpoint string) ([]Record, error) {
	key, err := s.RequestURL(entity, q, limit, endpoint)
	if err != nil {
		return nil, err
	}
	if records, ok := s.cache.Get(key); ok {
		return cloneRecords(records), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if records, ok := s.cache.Get(key); ok {
			return records, nil
		}
		resp, err := s.caller.Call(ctx, key, fetch.Request{})
		if err != nil {
			return nil, err
		}
		records, err := normalize(key, resp)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, records)
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneRecords(v.([]Record)), nil
}

// RequestURL builds the canonical URL, which doubles as the cache key.
func (s *Service) RequestURL(entity, q string, limit int, endpoint string) (string, error) {
	entity = strings.TrimSpace(entity)
	endpoint = strings.TrimSpace(endpoint)
	if limit <= 0 {
		limit = DefaultLimit
	}

	raw := endpoint
	if raw == "" {
		if entity == "" {
			return "", ErrNoEntity
		}
		raw = s.moduleBase + "/api/lookup/" + url.PathEscape(entity)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("query: parse endpoint %q: %w", raw, err)
	}
	params := u.Query()
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func normalize(key string, resp *fetch.Response) ([]Record, error) {
	if resp == nil || !resp.JSON {
		return nil, &fetch.MalformedResponseError{URL: key, Err: errors.New("expected a JSON body")}
	}
	items, ok := extractItems(resp.Data)
	if !ok {
		return nil, &fetch.MalformedResponseError{URL: key, Err: fmt.Errorf("unexpected payload %T", resp.Data)}
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

// extractItems accepts a bare array or an object wrapping the array under
// items, data or results.
func extractItems(payload any) ([]any, bool) {
	switch v := payload.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range []string{"items", "data", "results"} {
			if list, ok := v[key].([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
