package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/civicgov/birth-registry/certificate-service/internal/core/domain"
)

// errorBody is the error envelope every endpoint returns.
type errorBody struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Unexpected errors are logged and surfaced as an opaque 500.
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		msg = trimSentinel(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		msg = trimSentinel(err, domain.ErrUnauthenticated)
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
		msg = trimSentinel(err, domain.ErrForbidden)
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		msg = trimSentinel(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
		msg = trimSentinel(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
		msg = trimSentinel(err, domain.ErrUnavailable)
	default:
		logger.WithError(err).Error("unhandled error")
	}

	writeJSON(w, status, errorBody{Msg: msg})
}

// trimSentinel strips the wrapped sentinel prefix ("conflict: ...") so the
// caller sees only the human-readable part.
func trimSentinel(err error, sentinel error) string {
	full := err.Error()
	prefix := sentinel.Error() + ": "
	if len(full) > len(prefix) && full[:len(prefix)] == prefix {
		return full[len(prefix):]
	}
	return full
}
