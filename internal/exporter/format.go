package exporter

import (
	"math"
	"strconv"
	"time"

	"filmstats/internal/dataprocessing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the layout used for release dates in CSV outputs
const DateLayout = "2006-01-02"

var thousands = message.NewPrinter(language.English)

// FormatFloat renders f the way Python's repr does. NaN renders as an empty
// field, matching how pandas writes missing floats.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return dataprocessing.FormatPyFloat(f)
}

// FormatInt formats an int64 value for CSV output
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FormatOptionalInt formats a nullable integer; nil renders empty
func FormatOptionalInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

// FormatDate formats a nullable date; nil renders empty
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatThousands renders n with comma grouping, e.g. 20,000
func FormatThousands(n int64) string {
	return thousands.Sprintf("%d", n)
}

// FormatList renders items as a Python list literal: ['Drama', 'Comedy']
func FormatList(items []string) string {
	return dataprocessing.FormatStringList(items)
}
