package provider

import (
	"fmt"
	"net/http"
	"strings"
)

// Code identifies the class of a provider failure.
type Code string

const (
	CodeAuth        Code = "AUTH"
	CodeRateLimit   Code = "RATE_LIMIT"
	CodeNotFound    Code = "NOT_FOUND"
	CodeUpstream    Code = "UPSTREAM"
	CodeBadResponse Code = "BAD_RESPONSE"
	CodeNetwork     Code = "NETWORK"
)

// Error is a classified upstream failure. Adapters raise it for transport
// failures, non-2xx statuses, unparseable bodies, and provider-reported error
// conditions embedded in 200 responses. Status is the upstream HTTP status
// when one was observed, 0 otherwise.
type Error struct {
	Provider string
	Code     Code
	Message  string
	Status   int
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Provider, e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

func newError(providerName string, code Code, message string) *Error {
	return &Error{Provider: providerName, Code: code, Message: message}
}

// classifyStatus maps an HTTP status to an error code.
func classifyStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeAuth
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusNotFound:
		return CodeNotFound
	default:
		return CodeUpstream
	}
}

// classifyText maps a provider-reported error message to an error code by
// matching signature substrings.
func classifyText(message string) Code {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "limit") || strings.Contains(m, "frequency") || strings.Contains(m, "premium"):
		return CodeRateLimit
	case strings.Contains(m, "api key") || strings.Contains(m, "apikey") ||
		strings.Contains(m, "unauthorized") || strings.Contains(m, "token"):
		return CodeAuth
	case strings.Contains(m, "not found") || strings.Contains(m, "invalid symbol") ||
		strings.Contains(m, "no data"):
		return CodeNotFound
	default:
		return CodeUpstream
	}
}
