package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// missingMarkers are the cell values read as missing, matching the default
// NA markers of pandas.read_csv.
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
	"<nil>": {},
}

// IsMissing reports whether a raw cell value denotes a missing value
func IsMissing(value string) bool {
	_, ok := missingMarkers[strings.TrimSpace(value)]
	return ok
}

// ToFloat coerces a cell to a number. ok is false for missing or
// non-numeric values.
func ToFloat(value string) (float64, bool) {
	text := strings.TrimSpace(value)
	if IsMissing(text) || strings.ContainsAny(text, "_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ToFloatDefault coerces a cell to a number, returning def when it is not one
func ToFloatDefault(value string, def float64) float64 {
	if f, ok := ToFloat(value); ok {
		return f
	}
	return def
}

// ToInt coerces a cell to an integer by truncating its numeric value
func ToInt(value string) (int64, bool) {
	f, ok := ToFloat(value)
	if !ok || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// ToIntDefault coerces a cell to an integer, returning def when it is not one
func ToIntDefault(value string, def int64) int64 {
	if i, ok := ToInt(value); ok {
		return i
	}
	return def
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
	"2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDate parses a release date. Unparseable or missing values yield nil.
func ParseDate(value string) *time.Time {
	text := strings.TrimSpace(value)
	if IsMissing(text) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// ParseStringList converts a serialized list cell to its items.
//
// A Python list literal yields its items stringified and trimmed, with empty
// items removed. Text that is not a valid literal is split on commas. Any
// other valid literal (a quoted string, number, tuple, dict) yields an empty
// list, as does a missing value.
func ParseStringList(value string) []string {
	text := strings.TrimSpace(value)
	if IsMissing(text) {
		return []string{}
	}

	parsed, err := parseLiteral(text)
	if err != nil {
		return splitCommaList(text)
	}

	list, ok := parsed.(pyList)
	if !ok {
		return []string{}
	}

	items := make([]string, 0, len(list))
	for _, item := range list {
		if s := strings.TrimSpace(item.str()); s != "" {
			items = append(items, s)
		}
	}
	return items
}

func splitCommaList(text string) []string {
	items := []string{}
	for _, chunk := range strings.Split(text, ",") {
		if s := strings.TrimSpace(chunk); s != "" {
			items = append(items, s)
		}
	}
	return items
}

// FormatStringList renders items as a Python list literal, the inverse of
// ParseStringList for trimmed, non-empty items.
func FormatStringList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pyStr(item).repr())
	}
	b.WriteByte(']')
	return b.String()
}

// FormatPyFloat renders f the way Python's repr does: shortest round-trip
// digits, positional notation for exponents in [-4, 16), always with a
// decimal point or exponent.
func FormatPyFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
