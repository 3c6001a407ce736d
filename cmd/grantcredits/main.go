package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"ledger/internal/adapter/repo"
	"ledger/internal/domain"
	"ledger/internal/infra"
	"ledger/internal/ledger"
)

func main() {
	var (
		userFlag   string
		amountFlag int64
		sourceFlag string
	)

	flag.StringVar(&userFlag, "user", "", "user ID to credit")
	flag.Int64Var(&amountFlag, "amount", 0, "credits to grant (positive integer)")
	flag.StringVar(&sourceFlag, "source", domain.SourceGrantCredits, "source tag recorded with the grant")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}
	if amountFlag <= 0 {
		exitWithError(errors.New("-amount must be a positive integer"))
	}

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	if err := infra.EnsureSchema(ctx, pool); err != nil {
		exitWithError(err)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "grantcredits").Logger()
	mutator := ledger.NewMutator(repo.NewAccountRepository(pool), repo.NewTransactionRepository(pool), logger)

	balance, err := mutator.Credit(ctx, userID, amountFlag, sourceFlag, "")
	if err != nil {
		exitWithError(fmt.Errorf("failed to grant credits: %w", err))
	}

	fmt.Printf("User %s credited %d (source=%s), new balance %d\n", userID, amountFlag, sourceFlag, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
