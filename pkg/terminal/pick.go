package terminal

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-lookup/pkg/query"
)

// SearchAgain is the option appended after the results of every search.
const SearchAgain = "Search again..."

// Searcher returns records for a query and reports failures, unlike the
// degrading query.Lookuper.
type Searcher interface {
	Lookup(ctx context.Context, entity, q string, limit int, endpoint string) ([]query.Record, error)
}

// Request describes one terminal pick.
type Request struct {
	Entity   string
	Endpoint string
	Limit    int
	Q        string
	PageSize int
}

// Picker runs the search and select loop over a PromptDriver.
type Picker struct {
	driver PromptDriver
	search Searcher
	logger logr.Logger
}

// Option configures a Picker.
type Option func(*Picker)

// WithLogger sets the picker logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Picker) {
		p.logger = logger
	}
}

// NewPicker builds a terminal picker.
func NewPicker(search Searcher, driver PromptDriver, options ...Option) *Picker {
	p := &Picker{
		driver: driver,
		search: search,
		logger: logr.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Pick prompts until the user selects a record or aborts. An empty req.Q asks
// for a query first.
func (p *Picker) Pick(ctx context.Context, req Request) (query.Record, error) {
	if p.driver == nil || p.search == nil {
		return nil, fmt.Errorf("terminal: picker requires a driver and a searcher")
	}
	if req.Limit <= 0 {
		req.Limit = query.DefaultLimit
	}
	q := strings.TrimSpace(req.Q)
	ask := q == ""

	for {
		if ask {
			answer, err := p.driver.Input(ctx, InputConfig{
				Message: fmt.Sprintf("Search %s", entityName(req)),
				Default: q,
			})
			if err != nil {
				return nil, err
			}
			q = strings.TrimSpace(answer)
		}
		ask = true

		records, err := p.search.Lookup(ctx, req.Entity, q, req.Limit, req.Endpoint)
		if err != nil {
			p.logger.Error(err, "lookup search failed", "entity", req.Entity, "q", q)
			if infoErr := p.driver.Info(ctx, fmt.Sprintf("Search failed: %v", err)); infoErr != nil {
				return nil, infoErr
			}
			continue
		}
		if len(records) == 0 {
			if err := p.driver.Info(ctx, "No matches"); err != nil {
				return nil, err
			}
			continue
		}

		options := make([]string, 0, len(records)+1)
		for i, rec := range records {
			options = append(options, OptionLabel(i, rec))
		}
		options = append(options, SearchAgain)

		idx, err := p.driver.Select(ctx, SelectConfig{
			Message:  fmt.Sprintf("Pick %s", entityName(req)),
			Options:  options,
			PageSize: req.PageSize,
		})
		if err != nil {
			return nil, err
		}
		switch {
		case idx == len(records):
			continue
		case idx < 0 || idx > len(records):
			return nil, ErrNoSelection
		}
		p.logger.V(1).Info("lookup record picked", "entity", req.Entity, "id", records[idx].ID())
		return records[idx], nil
	}
}

// OptionLabel renders one select option. The position prefix keeps options
// unique when labels repeat.
func OptionLabel(i int, rec query.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s", i+1, rec.Label())
	if code := rec.Code(); code != "" {
		fmt.Fprintf(&b, " [%s]", code)
	}
	if secondary := rec.Secondary(); secondary != "" {
		b.WriteString(" - ")
		b.WriteString(secondary)
	}
	return b.String()
}

func entityName(req Request) string {
	if req.Entity != "" {
		return req.Entity
	}
	return req.Endpoint
}
