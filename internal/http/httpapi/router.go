package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ledger/internal/http/handlers"
	"ledger/internal/infra"
	"ledger/internal/middleware"
)

// NewRouter wires the HTTP surface. The webhook route carries no auth and no
// rate limit: the provider signs its payloads and retries on 429s we would
// rather not provoke.
func NewRouter(app *handlers.App, cfg *infra.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	// Provider-facing
	r.Post("/v1/webhooks/adapty", app.AdaptyWebhook)

	// Authenticated client surface
	r.Route("/v1/credits", func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Get("/", app.CreditsBalance)
		r.Post("/consume", app.CreditsConsume)
		r.Get("/transactions", app.CreditsTransactions)
	})

	return r
}
