package lookupserver

import (
	"fmt"
	"sort"
	"strings"
)

// Search filters records whose search fields contain query, case
// insensitively. Prefix matches rank first, then by label.
func Search(records []Record, query string, limit int, opts Options) []Record {
	limit = clampLimit(limit, opts)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if opts.EmptySearchMode == EmptySearchTop {
			if len(records) <= limit {
				return append([]Record{}, records...)
			}
			return append([]Record{}, records[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedRecord, 0, 32)
	for _, rec := range records {
		contains, prefix := false, false
		for _, field := range opts.SearchFields {
			value := strings.ToLower(stringValue(rec[field]))
			if value == "" || !strings.Contains(value, q) {
				continue
			}
			contains = true
			if strings.HasPrefix(value, q) {
				prefix = true
				break
			}
		}
		if !contains {
			continue
		}
		matches = append(matches, matchedRecord{
			record:   rec,
			label:    strings.ToLower(displayLabel(rec)),
			isPrefix: prefix,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].label < matches[j].label
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Record, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.record)
	}
	return out
}

type matchedRecord struct {
	record   Record
	label    string
	isPrefix bool
}

func displayLabel(rec Record) string {
	for _, key := range []string{"label", "name", "title", "code"} {
		if v := stringValue(rec[key]); v != "" {
			return v
		}
	}
	return stringValue(rec["id"])
}

func stringValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}
