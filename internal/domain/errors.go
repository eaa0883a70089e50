package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist (or exists under a different trip).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end date before start date).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the acting user is not allowed to perform the
// operation: a mutation attempted by someone other than the trip owner, or a
// read of a private trip by a stranger.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a candidate time range overlaps an existing
// sub-resource of the same kind under the same trip.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")
