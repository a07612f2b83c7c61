package services

import "errors"

// Service errors
var (
	// ErrServiceUnavailable is returned when the pipeline cannot accept
	// another run right now
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
