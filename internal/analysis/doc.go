// Package analysis derives categorical summaries from the per-movie
// aggregates: genre, release year and original language statistics, plus
// the distribution of individual rating values.
//
// Category averages are weighted by rating count, so a genre with one heavily
// rated film is dominated by it. The median is taken over per-movie means and
// is unweighted.
package analysis
