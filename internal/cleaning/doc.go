// Package cleaning turns the raw exports into typed, deduplicated records and
// joins ratings with movie metadata.
//
// Malformed values never fail a run: numbers fall back to defaults, list
// cells to empty lists and a missing original_language to "unknown". Rows
// that cannot be keyed (no movie_id, no title, no numeric rating) are
// dropped and counted in the per-table Report.
package cleaning
