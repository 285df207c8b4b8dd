package domain

import "errors"

// Sentinel errors for the whole service. Services wrap these with context
// via fmt.Errorf("...: %w", Err...); handlers map them to HTTP status codes
// with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("storage unavailable")

	// ErrDuplicateCertificateID reports a certificate number collision at
	// the storage layer. The approve flow retries with a fresh number.
	ErrDuplicateCertificateID = errors.New("duplicate certificate id")
)
