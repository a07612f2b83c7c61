// Package exporter writes the pipeline tables as CSV.
//
// CSVWriter handles the file mechanics: plain or gzip output chosen by the
// .gz suffix, optional UTF-8 BOM, and streaming through a temporary file that
// replaces the target on Close.
//
// TableExporter projects the domain records onto column layouts. Values are
// rendered the way the Letterboxd exports expect them: list columns as
// Python list literals (['Drama', 'Comedy']), floats in shortest repr form
// (7.0, 6.75), missing values as empty fields.
package exporter
