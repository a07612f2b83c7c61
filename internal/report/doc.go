// Package report renders pipeline results for people: markdown reports,
// PNG charts, an xlsx workbook and a BSON dump of the movie aggregates.
//
// Numbers in the markdown follow the layout of the original cleaning and
// analysis reports, so floats print in their shortest round-trip form and
// counts in the genre report carry thousands separators.
package report
