// Package aggregate rolls merged ratings up to one row per movie and
// summarises the result.
package aggregate
