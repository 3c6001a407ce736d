package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/domain"
	"ledger/internal/middleware"
)

type consumeRequest struct {
	Amount int64 `json:"amount"`
}

// CreditsConsume debits the caller's balance. The user id comes exclusively
// from the authenticated context.
func (a *App) CreditsConsume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthenticated", "an authenticated user is required")
		return
	}

	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}

	balance, err := a.Mutator.Debit(r.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			a.error(w, http.StatusBadRequest, "invalid_argument", "a positive credit amount is required")
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusConflict, "failed_precondition", "insufficient credits")
		case errors.Is(err, domain.ErrUnauthenticated):
			a.error(w, http.StatusUnauthorized, "unauthenticated", "an authenticated user is required")
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("debit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to consume credits")
		}
		return
	}

	a.json(w, http.StatusOK, map[string]int64{"balance": balance})
}

// CreditsBalance returns the caller's balance and entitlement state. Accounts
// are created lazily on first mutation, so a missing row reads back as the
// free tier with zero credits.
func (a *App) CreditsBalance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthenticated", "an authenticated user is required")
		return
	}

	account, err := a.Accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, map[string]any{
				"balance": int64(0),
				"tier":    domain.TierFree,
			})
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to load account")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load account")
		return
	}

	resp := map[string]any{
		"balance": account.Credits,
		"tier":    account.Tier,
	}
	if sub := account.Subscription; sub != nil {
		resp["subscription"] = map[string]any{
			"product_id": sub.ProductID,
			"status":     sub.Status,
			"updated_at": sub.UpdatedAt,
		}
	}
	a.json(w, http.StatusOK, resp)
}

// CreditsTransactions lists the caller's most recent ledger records.
func (a *App) CreditsTransactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthenticated", "an authenticated user is required")
		return
	}

	txns, err := a.Txns.ListByUserID(r.Context(), userID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to list transactions")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list transactions")
		return
	}

	items := make([]map[string]any, 0, len(txns))
	for _, t := range txns {
		item := map[string]any{
			"id":         t.ID,
			"type":       t.Type,
			"amount":     t.Amount,
			"source":     t.Source,
			"created_at": t.CreatedAt,
		}
		if t.ProductID != "" {
			item["product_id"] = t.ProductID
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
