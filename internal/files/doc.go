// Package files locates pipeline inputs and reports on disk and watches the
// data directory for changed inputs.
package files
