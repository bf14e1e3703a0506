package services

import "errors"

// Errors shared by the feature services. Handlers map them to HTTP statuses.
var (
	ErrValidation      = errors.New("input validation failed")
	ErrNotFound        = errors.New("resource not found")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrUpstream        = errors.New("upstream service failed")
	ErrUnavailable     = errors.New("service is not configured")
)
