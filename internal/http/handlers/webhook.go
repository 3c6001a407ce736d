package handlers

import (
	"encoding/json"
	"io"
	"net/http"
)

const adaptySignatureHeader = "x-adapty-signature"

// AdaptyWebhook receives billing lifecycle events pushed by the provider. The
// signature is verified over the raw body bytes before any JSON decoding.
// Recognized no-ops (unknown event kinds, unknown products, duplicate
// deliveries) still answer 200 so the provider stops redelivering them; only
// processing failures answer 500, which the provider retries.
func (a *App) AdaptyWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if !a.Verifier.Configured() {
		a.Logger.Error().Msg("adapty webhook secret is not configured")
		a.error(w, http.StatusInternalServerError, "not_configured", "webhook secret is not configured")
		return
	}

	signature := r.Header.Get(adaptySignatureHeader)
	if signature == "" {
		a.error(w, http.StatusUnauthorized, "missing_signature", "signature header is required")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_payload", "failed to read body")
		return
	}

	if err := a.Verifier.Verify(body, signature); err != nil {
		a.error(w, http.StatusUnauthorized, "invalid_signature", "signature does not match payload")
		return
	}

	if !json.Valid(body) {
		a.error(w, http.StatusBadRequest, "invalid_payload", "body is not valid JSON")
		return
	}

	if err := a.Reconciler.Handle(r.Context(), body); err != nil {
		a.Logger.Error().Err(err).Msg("failed to process adapty webhook")
		a.error(w, http.StatusInternalServerError, "internal_error", "failed to process event")
		return
	}

	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
