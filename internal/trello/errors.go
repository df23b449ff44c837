package trello

import (
	"fmt"
	"net/http"
)

// AuthError indicates the Trello API rejected the credentials. Never retried.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("trello authentication failed (HTTP %d): check your API key/token and board permissions: %s", e.StatusCode, excerpt(e.Body))
}

// NotFoundError indicates the requested resource does not exist. Never retried.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("trello resource not found: %s", e.Resource)
}

// RateLimitError indicates retries were exhausted against 429 responses.
type RateLimitError struct {
	Attempts int
	Body     string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("trello rate limit exceeded after %d attempts: %s", e.Attempts, excerpt(e.Body))
}

// ServerError indicates retries were exhausted against 5xx responses.
type ServerError struct {
	StatusCode int
	Attempts   int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("trello server error (HTTP %d) after %d attempts: %s", e.StatusCode, e.Attempts, excerpt(e.Body))
}

// HTTPError is any other non-2xx response. Never retried.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("trello API returned HTTP %d: %s", e.StatusCode, excerpt(e.Body))
}

// retryClass buckets a response for the retry policy. Kept separate from
// the backoff loop so the classification is independently testable.
type retryClass int

const (
	classOK retryClass = iota
	classAuth
	classNotFound
	classRetry
	classOther
)

// classifyStatus maps an HTTP status code to its retry class.
// 429 and 5xx gateway/server failures are transient; auth and not-found
// failures are permanent.
func classifyStatus(code int) retryClass {
	switch {
	case code >= 200 && code < 300:
		return classOK
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return classAuth
	case code == http.StatusNotFound:
		return classNotFound
	case code == http.StatusTooManyRequests,
		code == http.StatusInternalServerError,
		code == http.StatusBadGateway,
		code == http.StatusServiceUnavailable,
		code == http.StatusGatewayTimeout:
		return classRetry
	default:
		return classOther
	}
}

func excerpt(body string) string {
	const max = 200
	if len(body) > max {
		return body[:max] + "..."
	}
	return body
}
