package lookupserver

import (
	"net/http"

	"github.com/go-logr/logr"
)

// EmptySearchMode controls what an empty query returns.
type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

// ContractSegment is the reserved entity name serving the OpenAPI document.
const ContractSegment = "_contract"

// GuardFunc authorises a request before any data is read, typically by
// checking the tenant header.
type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	SearchFields    []string
	Guard           GuardFunc
	Logger          logr.Logger

	Dataset *Dataset
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/lookup",
		SearchParam:     "q",
		LimitParam:      "limit",
		DefaultLimit:    10,
		MaxLimit:        100,
		EmptySearchMode: EmptySearchTop,
		SearchFields:    []string{"label", "name", "code", "sku"},
		Logger:          logr.Discard(),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = EmptySearchTop
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/lookup"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if len(opts.SearchFields) == 0 {
		opts.SearchFields = []string{"label", "name", "code", "sku"}
	} else {
		opts.SearchFields = append([]string{}, opts.SearchFields...)
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Dataset == nil {
		opts.Dataset = NewDataset(nil)
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.EmptySearchMode = mode
	}
}

func WithSearchFields(fields ...string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchFields = append([]string{}, fields...)
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

func WithLogger(logger logr.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

func WithDataset(ds *Dataset) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Dataset = ds
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
