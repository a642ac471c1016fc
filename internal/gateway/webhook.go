package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/channelwise/permsync/internal/webhook"
)

// secretTokenHeader is the header Telegram echoes the configured webhook
// secret back in.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxWebhookBody = 1 << 20 // updates are small; anything larger is abuse

// handleWebhook adapts the webhook router to HTTP. A rejected signature maps
// to 401; everything else, including internal sync failures, is answered 200
// with the result body so Telegram does not redeliver consumed updates.
func (g *Gateway) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		res := g.router.Handle(r.Context(), body, r.Header.Get(secretTokenHeader))

		w.Header().Set("Content-Type", "application/json")
		if !res.Success && res.Error == webhook.ErrSignature {
			w.WriteHeader(http.StatusUnauthorized)
		}
		_ = json.NewEncoder(w).Encode(res)
	}
}
