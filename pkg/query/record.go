package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a loosely typed lookup result. Only an identifier and something
// label-like are assumed; every other field passes through opaquely.
type Record map[string]any

var (
	labelFields     = []string{"label", "name", "title", "code"}
	codeFields      = []string{"code", "sku", "barcode"}
	secondaryFields = []string{"description", "subtitle", "secondary"}
	priceFields     = []string{"price", "unit_price", "sell_price"}
)

// ID returns the formatted identifier.
func (r Record) ID() string {
	return r.Field("id")
}

// Label returns the first non-empty label-like field, falling back to the id.
func (r Record) Label() string {
	if v := r.first(labelFields); v != "" {
		return v
	}
	return r.ID()
}

// Code returns code, sku or barcode, whichever is present first.
func (r Record) Code() string {
	return r.first(codeFields)
}

// Secondary returns a secondary descriptive line when the record has one.
func (r Record) Secondary() string {
	return r.first(secondaryFields)
}

// Price returns the first price-like field.
func (r Record) Price() string {
	return r.first(priceFields)
}

// Field formats the named field, supporting dotted paths into nested objects.
func (r Record) Field(path string) string {
	if r == nil || path == "" {
		return ""
	}
	if v, ok := r[path]; ok {
		return FormatValue(v)
	}
	var cur any = map[string]any(r)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	return FormatValue(cur)
}

// Target resolves a target-map key to a value. The keys id, name, price and
// code map to the record accessors; anything else is read as a field path.
func (r Record) Target(key string) string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "id":
		return r.ID()
	case "name", "label":
		return r.Label()
	case "price":
		return r.Price()
	case "code":
		return r.Code()
	default:
		return r.Field(key)
	}
}

func (r Record) first(fields []string) string {
	for _, name := range fields {
		if v := r.Field(name); v != "" {
			return v
		}
	}
	return ""
}

// FormatValue renders a record value the way it should appear in a form
// control. Floats go through decimal so 12.5 stays "12.5" and large values
// never switch to exponent notation.
func FormatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case uint:
		return strconv.FormatUint(uint64(value), 10)
	case uint64:
		return strconv.FormatUint(value, 10)
	case float32:
		return formatFloat(float64(value))
	case float64:
		return formatFloat(value)
	case decimal.Decimal:
		return value.String()
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return decimal.NewFromFloat(f).String()
}
