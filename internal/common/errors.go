// Package common defines shared constants and sentinel errors used across the
// uploader's layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors (surfaced immediately, never retried).
	ErrNoEligibleFiles   = errors.New("no eligible files selected")
	ErrFilesStillPending = errors.New("files still pending upload")

	// Transfer errors.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	// Job-level errors.
	ErrTooManyFailures = errors.New("too many failed uploads")

	// Server reachability.
	ErrUnavailable = errors.New("server unavailable")
)
