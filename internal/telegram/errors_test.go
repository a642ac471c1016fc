package telegram

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrKind
	}{
		{"nil", nil, KindUnknown},
		{"chat not found 400", &APIError{Code: 400, Description: "Bad Request: chat not found"}, KindNotFound},
		{"not found 404", &APIError{Code: 404, Description: "Not Found"}, KindNotFound},
		{"bot kicked 403", &APIError{Code: 403, Description: "Forbidden: bot was kicked"}, KindForbidden},
		{"rate limited 429", &APIError{Code: 429, Description: "Too Many Requests"}, KindRateLimited},
		{"server error 500", &APIError{Code: 500, Description: "Internal Server Error"}, KindUnknown},
		{"transport failure", &transportError{method: "getChat", err: errors.New("connection refused")}, KindNetwork},
		{"wrapped transport failure", fmt.Errorf("sync: %w", &transportError{method: "getChat", err: errors.New("tls handshake")}), KindNetwork},
		{"context cancelled", context.Canceled, KindNetwork},
		{"deadline exceeded", context.DeadlineExceeded, KindNetwork},
		{"plain error", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	inner := errors.New(`Post "https://api.telegram.org/bot123:SECRET/getMe": dial tcp: timeout`)
	te := &transportError{method: "getMe", err: inner}

	// The wrapped error is still reachable for callers that need it.
	if !errors.Is(te, inner) {
		t.Error("Unwrap() should expose the original error")
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsNotFound(&APIError{Code: 400}) {
		t.Error("IsNotFound(400) = false, want true")
	}
	if !IsForbidden(&APIError{Code: 403}) {
		t.Error("IsForbidden(403) = false, want true")
	}
	if IsNotFound(&APIError{Code: 403}) {
		t.Error("IsNotFound(403) = true, want false")
	}
}
