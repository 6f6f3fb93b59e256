// Package markup holds the marker attribute contract read from host inputs
// and the markup the lookup widgets inject into the page.
package markup

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-lookup/pkg/dom"
	"github.com/goliatone/go-lookup/pkg/hostscope"
)

// Marker attributes placed on host inputs by page authors.
const (
	AttrEntity       = "data-lookup"
	AttrEndpoint     = "data-lookup-endpoint"
	AttrLimit        = "data-lookup-limit"
	AttrMode         = "data-lookup-mode"
	AttrTargetPrefix = "data-lookup-target-"
	AttrWired        = "data-lookup-wired"
	AttrScope        = "data-lookup-scope"
	AttrIndex        = "data-lookup-index"
	AttrSession      = "data-lookup-session"
)

// Widget modes accepted by AttrMode.
const (
	ModePicker = "picker"
	ModeInline = "inline"
)

// Classes on injected elements.
const (
	ClassSuggestions = "lookup-suggestions"
	ClassItem        = "lookup-item"
	ClassActive      = "is-active"
	ClassEmpty       = "lookup-empty"
	ClassTrigger     = "lookup-trigger"
	ClassModal       = "lookup-modal"
	ClassSearchInput = "lookup-search-input"
	ClassSearchGo    = "lookup-search-go"
	ClassClose       = "lookup-close"
	ClassResults     = "lookup-results"
)

// EmptyText is shown when a search returns no records.
const EmptyText = "No matches"

// TargetKeys are the companion target markers understood on host inputs.
var TargetKeys = []string{"id", "name", "price", "code"}

// Marker is the lookup configuration read from one host input.
type Marker struct {
	Entity   string
	Endpoint string
	Limit    int
	Mode     string
	Targets  hostscope.Targets
}

// Inline reports whether the input asked for type-ahead instead of a picker trigger.
func (m Marker) Inline() bool {
	return m.Mode == ModeInline
}

// ReadMarker parses the marker attributes of n. The second result is false
// when n carries no lookup marker.
func ReadMarker(n *html.Node) (Marker, bool) {
	entity, ok := dom.Attr(n, AttrEntity)
	if !ok {
		return Marker{}, false
	}
	m := Marker{
		Entity:   strings.TrimSpace(entity),
		Endpoint: strings.TrimSpace(dom.AttrOr(n, AttrEndpoint, "")),
		Mode:     strings.ToLower(strings.TrimSpace(dom.AttrOr(n, AttrMode, ModePicker))),
		Targets:  hostscope.Targets{},
	}
	if raw := strings.TrimSpace(dom.AttrOr(n, AttrLimit, "")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			m.Limit = limit
		}
	}
	for _, key := range TargetKeys {
		if selector := strings.TrimSpace(dom.AttrOr(n, AttrTargetPrefix+key, "")); selector != "" {
			m.Targets[key] = selector
		}
	}
	return m, true
}
