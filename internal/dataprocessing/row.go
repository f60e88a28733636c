package dataprocessing

import (
	"github.com/shopspring/decimal"
)

// Row is one decoded data row keyed by its header column name.
// Values are either decimal.Decimal for numeric cells or string for text cells.
// Empty cells are omitted so that a missing key and an empty cell look the same.
type Row map[string]any

// Lookup returns the value stored under column and whether it is present.
// A nil value counts as missing.
func (r Row) Lookup(column string) (any, bool) {
	v, ok := r[column]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Text returns the column value rendered as text
func (r Row) Text(column string) (string, bool) {
	v, ok := r.Lookup(column)
	if !ok {
		return "", false
	}
	return ValueText(v), true
}

// ValueText renders a decoded cell value as text without altering its digits
func ValueText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case nil:
		return ""
	default:
		return ""
	}
}
