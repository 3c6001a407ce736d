package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/adapter/repo"
	"ledger/internal/billing"
	"ledger/internal/http/handlers"
	httpapi "ledger/internal/http/httpapi"
	"ledger/internal/infra"
	"ledger/internal/ledger"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	catalog, err := billing.ParseCatalog(cfg.SubscriptionProducts, cfg.CreditPackProducts)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid product catalog")
	}
	if cfg.AdaptyWebhookSecret == "" {
		logger.Warn().Msg("ADAPTY_WEBHOOK_SECRET is not set; webhook deliveries will be rejected")
	}

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	accounts := repo.NewAccountRepository(dbpool)
	transactions := repo.NewTransactionRepository(dbpool)
	events := repo.NewWebhookEventRepository(dbpool)

	mutator := ledger.NewMutator(accounts, transactions, logger)
	reconciler := billing.NewReconciler(catalog, mutator, accounts, events, logger)
	verifier := billing.NewSignatureVerifier(cfg.AdaptyWebhookSecret)

	app := &handlers.App{
		Logger:     logger,
		Mutator:    mutator,
		Reconciler: reconciler,
		Verifier:   verifier,
		Accounts:   accounts,
		Txns:       transactions,
	}

	router := httpapi.NewRouter(app, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
