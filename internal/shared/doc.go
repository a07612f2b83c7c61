// Package shared holds helpers used across the filmstats packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and small CSV fixtures for building pipeline inputs in tests.
package shared
