package markup

import (
	"sort"
	"strings"

	"github.com/goliatone/go-lookup/pkg/query"
)

// RenderFunc returns the inner markup of one suggestion row. The output is
// sanitised before it reaches the page.
type RenderFunc func(query.Record) string

// SuggestionList renders the list of records with active highlighted. An
// empty slice renders a single EmptyText row.
func SuggestionList(items []query.Record, active int, render RenderFunc, extraClass string) (string, error) {
	rows := make([]map[string]any, 0, len(items))
	for i, rec := range items {
		row := map[string]any{
			"index":  i,
			"active": i == active,
			"label":  rec.Label(),
		}
		if custom := customContent(rec, render); custom != "" {
			row["custom"] = custom
		} else {
			if code := rec.Code(); code != rec.Label() {
				row["code"] = code
			}
			row["secondary"] = rec.Secondary()
		}
		rows = append(rows, row)
	}
	return renderTemplate("suggestions", map[string]any{
		"rows":        rows,
		"extra_class": strings.TrimSpace(extraClass),
	})
}

func customContent(rec query.Record, render RenderFunc) string {
	if render == nil {
		return ""
	}
	return Sanitize(render(rec))
}

// Trigger renders the button injected after a discovered input.
func Trigger(entity string) (string, error) {
	return renderTemplate("trigger", map[string]any{"entity": entity})
}

// DialogData describes one picker dialog.
type DialogData struct {
	Session string
	Entity  string
	Title   string
	Query   string
}

// Dialog renders the picker: search box, search button, close button and an
// empty result list.
func Dialog(data DialogData) (string, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		title = "Search " + data.Entity
	}
	return renderTemplate("dialog", map[string]any{
		"session": data.Session,
		"entity":  data.Entity,
		"title":   title,
		"query":   data.Query,
	})
}

// InputSpec describes a lookup-enabled input for server side templates.
type InputSpec struct {
	Name        string
	Entity      string
	Endpoint    string
	Limit       int
	Mode        string
	Value       string
	Placeholder string
	Class       string
	Targets     map[string]string
}

// Input renders a text input carrying the marker attributes of spec.
func Input(spec InputSpec) (string, error) {
	keys := make([]string, 0, len(spec.Targets))
	for key := range spec.Targets {
		if strings.TrimSpace(key) != "" && strings.TrimSpace(spec.Targets[key]) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	targets := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		targets = append(targets, map[string]any{
			"key":      strings.TrimSpace(key),
			"selector": strings.TrimSpace(spec.Targets[key]),
		})
	}

	data := map[string]any{
		"name":        strings.TrimSpace(spec.Name),
		"class_name":  strings.TrimSpace(spec.Class),
		"placeholder": strings.TrimSpace(spec.Placeholder),
		"value":       strings.TrimSpace(spec.Value),
		"entity":      strings.TrimSpace(spec.Entity),
		"endpoint":    strings.TrimSpace(spec.Endpoint),
		"mode":        strings.TrimSpace(spec.Mode),
		"targets":     targets,
	}
	if spec.Limit > 0 {
		data["limit"] = spec.Limit
	}
	return renderTemplate("input", data)
}
