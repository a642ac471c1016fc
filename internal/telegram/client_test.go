package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTEST_TOKEN/getMe" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}

		writeJSON(t, w, APIResponse[User]{
			OK: true,
			Result: User{
				ID:        123,
				IsBot:     true,
				FirstName: "PermBot",
				Username:  "perm_bot",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TEST_TOKEN", srv.URL)
	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if user.ID != 123 {
		t.Errorf("ID = %d, want 123", user.ID)
	}
	if !user.IsBot {
		t.Error("IsBot = false, want true")
	}
}

func TestGetChatAdministrators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getChatAdministrators" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		var req getChatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.ChatID != -1001234 {
			t.Errorf("ChatID = %d, want -1001234", req.ChatID)
		}

		writeJSON(t, w, APIResponse[[]ChatMember]{
			OK: true,
			Result: []ChatMember{
				{User: User{ID: 1, FirstName: "Alice"}, Status: StatusCreator},
				{User: User{ID: 2, FirstName: "Bob"}, Status: StatusAdministrator, CanInviteUsers: true},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	admins, err := client.GetChatAdministrators(context.Background(), -1001234)
	if err != nil {
		t.Fatalf("GetChatAdministrators() error: %v", err)
	}
	if len(admins) != 2 {
		t.Fatalf("got %d administrators, want 2", len(admins))
	}
	if admins[0].Status != StatusCreator {
		t.Errorf("admins[0].Status = %q, want %q", admins[0].Status, StatusCreator)
	}
	if !admins[1].CanInviteUsers {
		t.Error("admins[1].CanInviteUsers = false, want true")
	}
	if admins[1].CanPostMessages {
		t.Error("admins[1].CanPostMessages = true, want false")
	}
}

func TestGetChatMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req getChatMemberRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.ChatID != -100 || req.UserID != 42 {
			t.Errorf("request = %+v, want chat -100 user 42", req)
		}

		writeJSON(t, w, APIResponse[ChatMember]{
			OK:     true,
			Result: ChatMember{User: User{ID: 42}, Status: StatusAdministrator, CanPostMessages: true},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	member, err := client.GetChatMember(context.Background(), -100, 42)
	if err != nil {
		t.Fatalf("GetChatMember() error: %v", err)
	}
	if !member.IsPrivileged() {
		t.Error("IsPrivileged() = false, want true")
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, APIResponse[struct{}]{
			OK:          false,
			ErrorCode:   400,
			Description: "Bad Request: chat not found",
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	_, err := client.GetChat(context.Background(), -100)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Code != 400 {
		t.Errorf("Code = %d, want 400", apiErr.Code)
	}
}

func TestRateLimitRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			writeJSON(t, w, APIResponse[struct{}]{
				OK:          false,
				ErrorCode:   429,
				Description: "Too Many Requests: retry after 0",
				Parameters:  &ResponseParameters{RetryAfter: 0},
			})
			return
		}
		writeJSON(t, w, APIResponse[Chat]{
			OK:     true,
			Result: Chat{ID: -100, Type: "channel"},
		})
	}))
	defer srv.Close()

	client := NewClient("TOKEN", srv.URL)
	chat, err := client.GetChat(context.Background(), -100)
	if err != nil {
		t.Fatalf("GetChat() error: %v", err)
	}
	if chat.ID != -100 {
		t.Errorf("ID = %d, want -100", chat.ID)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}
