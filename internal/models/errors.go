package models

import "errors"

var (
	// ErrValidation marks input rejected before any side effect
	ErrValidation = errors.New("validation failed")
	// ErrDecode marks a malformed share payload
	ErrDecode = errors.New("decode failed")
	// ErrRemoteSync marks a failed call to the remote database or share store
	ErrRemoteSync = errors.New("remote sync failed")
	// ErrReadOnly is returned by mutating operations on a shared schedule
	ErrReadOnly = errors.New("schedule is read-only")
	// ErrNotFound is returned when a film or share does not exist
	ErrNotFound = errors.New("not found")
	// ErrFetch marks a failed fetch of a festival page
	ErrFetch = errors.New("fetch failed")
)
