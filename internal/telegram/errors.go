package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrKind is a closed classification of client failures. Callers switch on
// the kind to decide retry vs. abort instead of inspecting error strings.
type ErrKind int

const (
	// KindUnknown covers failures that fit no other kind (decode errors,
	// unexpected API error codes).
	KindUnknown ErrKind = iota
	// KindNotFound means the chat or user does not exist or is not visible
	// to the bot.
	KindNotFound
	// KindForbidden means the bot was kicked or lacks access to the chat.
	KindForbidden
	// KindRateLimited means the API returned 429 after the client exhausted
	// its own Retry-After backoff.
	KindRateLimited
	// KindNetwork means the request never produced an API response:
	// timeouts, connection failures, cancelled contexts.
	KindNetwork
)

// String returns the kind name for logging.
func (k ErrKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// transportError wraps a failure that happened before any API response was
// decoded. It keeps the token-bearing URL out of the message.
type transportError struct {
	method string
	err    error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("telegram: %s request failed: %v", e.method, e.err)
}

func (e *transportError) Unwrap() error { return e.err }

// Kind classifies an error returned by this package. The classification is
// derived from the API error code or the transport error type, never from
// message substrings.
func Kind(err error) ErrKind {
	if err == nil {
		return KindUnknown
	}

	var te *transportError
	if errors.As(err, &te) {
		return KindNetwork
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusNotFound:
			// The Bot API reports "chat not found" as a 400.
			return KindNotFound
		case http.StatusForbidden:
			return KindForbidden
		case http.StatusTooManyRequests:
			return KindRateLimited
		default:
			return KindUnknown
		}
	}

	return KindUnknown
}

// IsNotFound reports whether err classifies as KindNotFound.
func IsNotFound(err error) bool { return Kind(err) == KindNotFound }

// IsForbidden reports whether err classifies as KindForbidden.
func IsForbidden(err error) bool { return Kind(err) == KindForbidden }
