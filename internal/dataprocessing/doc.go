// Package dataprocessing holds the value coercion and statistics helpers shared
// by the pipeline stages.
//
// # Coercion
//
// Raw CSV cells arrive as strings. The helpers here convert them leniently:
//
//   - IsMissing recognises the NA markers pandas writes ("", "nan", "None", ...)
//   - ToFloat and ToInt return ok=false instead of an error for bad values
//   - ParseDate tries a list of common layouts and yields nil on failure
//   - ParseStringList reads list cells written as Python literals
//     ("['Drama', 'Comedy']") and falls back to comma splitting
//
// FormatStringList and FormatPyFloat write values back in the same notation so
// that cleaned files round-trip through ParseStringList.
//
// # Statistics
//
// Mean and SampleStd wrap gonum/stat. Median copies its input before sorting.
// Round follows Python's round, which rounds the exact binary value:
//
//	dataprocessing.Round(2.675, 2) // 2.67
package dataprocessing
