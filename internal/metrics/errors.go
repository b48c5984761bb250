package metrics

import (
	"net/http"
	"strings"
)

// Error type constants for metrics labels.
const (
	ErrorTypeAuth        = "auth"
	ErrorTypeRateLimit   = "rate_limit"
	ErrorTypeServerError = "server_error"
	ErrorTypeClientError = "client_error"
	ErrorTypeTimeout     = "timeout"
	ErrorTypeNetwork     = "network"
	ErrorTypeAPI         = "api"
	ErrorTypeUnknown     = "unknown"
)

// ClassifyStatusCode classifies an HTTP status code from the Cloudflare API
// for metrics labeling. Status zero (no HTTP response) yields ErrorTypeAPI.
func ClassifyStatusCode(statusCode int) string {
	switch {
	case statusCode == 0:
		return ErrorTypeAPI
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode >= http.StatusInternalServerError && statusCode < 600:
		return ErrorTypeServerError
	case statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError:
		return ErrorTypeClientError
	default:
		return ErrorTypeUnknown
	}
}

// ClassifyTransportError classifies a transport-level error (connectivity,
// deserialization) by message for metrics labeling. Returns an empty string
// for nil errors.
func ClassifyTransportError(err error) string {
	if err == nil {
		return ""
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(errLower, "connection refused") || strings.Contains(errLower, "no such host"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}
