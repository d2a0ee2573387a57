package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/scribe/internal/shared"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode      int
	Message         string
	UpgradeRequired bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Unwrap maps the response onto a shared sentinel so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch {
	case e.UpgradeRequired:
		return shared.ErrUpgradeRequired
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode == http.StatusBadGateway,
		e.StatusCode == http.StatusServiceUnavailable,
		e.StatusCode == http.StatusGatewayTimeout:
		return shared.ErrServiceUnavailable
	}
	return shared.ErrAPIRequest
}

// errorPayload covers both FastAPI HTTPException bodies ({"detail": ...}) and the handlers that return
// {"error": ..., "upgrade_required": true}.
type errorPayload struct {
	Detail          json.RawMessage `json:"detail"`
	Error           string          `json:"error"`
	Message         string          `json:"message"`
	UpgradeRequired bool            `json:"upgrade_required"`
}

// NewAPIError builds an [APIError] from a status code and response body. fallback is used when the body
// carries no message.
func NewAPIError(status int, body []byte, fallback string) *APIError {
	apiErr := &APIError{StatusCode: status, UpgradeRequired: status == http.StatusPaymentRequired}

	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.UpgradeRequired = apiErr.UpgradeRequired || payload.UpgradeRequired
		apiErr.Message = firstNonEmpty(detailMessage(payload.Detail), payload.Error, payload.Message)
	}

	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// detailMessage reads "detail" as a string or as FastAPI's validation error list.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AsAPIError returns the [*APIError] in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message returns the user-facing message for err: the backend's message for an [*APIError], otherwise
// fallback. A nil err returns "".
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	if fallback == "" {
		return err.Error()
	}
	return fallback
}
