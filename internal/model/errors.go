package model

import "errors"

var (
	// ErrInput marks a malformed or empty request body.
	ErrInput = errors.New("invalid input")
	// ErrNotFound marks an unknown request id or device class.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyCompleted marks a second sensor delivery for the same request.
	ErrAlreadyCompleted = errors.New("request already completed")
	// ErrTransport marks an unreachable model backend or store.
	ErrTransport = errors.New("transport error")
	// ErrConfiguration marks a missing credential.
	ErrConfiguration = errors.New("configuration error")
	// ErrParse marks model output that does not decode as the expected structure.
	ErrParse = errors.New("parse error")
	// ErrFormat marks a model response without the expected content field.
	ErrFormat = errors.New("format error")
	// ErrSafetyViolation marks a query template that fails the allow-list checks.
	ErrSafetyViolation = errors.New("safety violation")
)
