// Package ingest reads the raw Letterboxd exports and the processed files
// written by earlier pipeline stages.
//
// Raw files load into a Table, an all-string gota dataframe that keeps every
// cell exactly as read. CSV, gzip-compressed CSV (.gz) and Excel workbooks
// (.xlsx, first sheet) are accepted. LoadRaw reads the three exports
// concurrently.
//
// Processed readers (LoadRatedMovies, LoadAggregates) coerce cells into the
// domain types so a stage can run on its own against files from an earlier
// run. A missing processed file is a NOT_FOUND error whose hint names the
// command that produces it.
package ingest
