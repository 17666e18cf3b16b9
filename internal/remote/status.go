// Package remote classifies failures of OpenAI-compatible HTTP APIs.
package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pdfqa/internal/domain"
)

// apiError is the error envelope returned by OpenAI-compatible APIs.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CheckStatus returns nil for 2xx responses and otherwise a wrapped
// domain error: 429 is a rate limit, 401/403 an auth failure, anything
// else a processing failure.
func CheckStatus(service string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := Message(body)
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w: %s", service, domain.ErrRemoteRateLimited, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", service, domain.ErrRemoteAuth, msg)
	default:
		return fmt.Errorf("%s: %w: status %d: %s", service, domain.ErrRemoteProcessing, status, msg)
	}
}

// Message extracts the API error message from body, falling back to the
// raw body.
func Message(body []byte) string {
	var env apiError
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// Transport wraps a request-level failure (DNS, TLS, timeout, decode).
func Transport(service string, err error) error {
	return fmt.Errorf("%s: %w: %v", service, domain.ErrRemoteProcessing, err)
}
