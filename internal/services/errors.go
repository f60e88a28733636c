package services

import "errors"

// Service errors
var (
	// ErrMalformedReport matches any MalformedReportError
	ErrMalformedReport = errors.New("malformed report")

	// ErrNoDirectory is returned for an exchange without a directory loader
	ErrNoDirectory = errors.New("no directory configured for exchange")
)
