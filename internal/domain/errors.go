package domain

import (
	"errors"
	"net/http"
)

// Domain errors. Callers match them with errors.Is; call sites wrap them
// with the specific reason.
var (
	// ErrInvalidDocument indicates the PDF could not be opened or parsed.
	ErrInvalidDocument = errors.New("invalid or corrupted document")

	// ErrNoContent indicates the document yielded no extractable text.
	ErrNoContent = errors.New("no extractable content")

	// ErrCapacityExceeded indicates a per-document or total chunk limit was hit.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrRemoteRateLimited indicates the remote model service throttled the request.
	ErrRemoteRateLimited = errors.New("remote service rate limited")

	// ErrRemoteAuth indicates the remote model service rejected the credentials.
	ErrRemoteAuth = errors.New("remote service authentication failed")

	// ErrRemoteProcessing indicates any other remote model service failure.
	ErrRemoteProcessing = errors.New("remote service processing failed")

	// ErrPersistence indicates a save or load of the store failed.
	ErrPersistence = errors.New("persistence failed")

	// Boundary errors.

	// ErrInvalidInput indicates a malformed upload or question.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFileTooLarge indicates an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrRateLimited indicates the local request rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// StatusCode maps an error to the status a transport boundary should report.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidDocument),
		errors.Is(err, ErrNoContent),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrRemoteRateLimited),
		errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
