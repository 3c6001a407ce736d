package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"ledger/internal/billing"
	"ledger/internal/domain"
	"ledger/internal/ledger"
)

// App bundles the components the HTTP layer dispatches into.
type App struct {
	Logger     zerolog.Logger
	Mutator    *ledger.Mutator
	Reconciler *billing.Reconciler
	Verifier   *billing.SignatureVerifier
	Accounts   domain.AccountRepository
	Txns       domain.TransactionRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
