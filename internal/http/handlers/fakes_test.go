package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ledger/internal/billing"
	"ledger/internal/domain"
	"ledger/internal/ledger"
)

// fakeStore backs the handler tests with an in-memory rendition of the
// store's per-account atomic contract.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	txns     []domain.Transaction
	events   map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[string]*domain.Account{},
		events:   map[string]bool{},
	}
}

func (s *fakeStore) account(userID string) *domain.Account {
	a, ok := s.accounts[userID]
	if !ok {
		a = &domain.Account{UserID: userID, Tier: domain.TierFree}
		s.accounts[userID] = a
	}
	return a
}

func (s *fakeStore) GetByUserID(_ context.Context, userID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *fakeStore) Debit(_ context.Context, userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok || a.Credits < amount {
		return 0, domain.ErrInsufficientCredits
	}
	a.Credits -= amount
	return a.Credits, nil
}

func (s *fakeStore) Credit(_ context.Context, userID string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	a.Credits += amount
	return a.Credits, nil
}

func (s *fakeStore) ApplySubscription(_ context.Context, userID, productID string, tier domain.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	a.Tier = tier
	a.Subscription = &domain.Subscription{ProductID: productID, Status: domain.SubscriptionActive}
	return nil
}

func (s *fakeStore) CancelSubscription(_ context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	a.Tier = domain.TierFree
	sub := a.Subscription
	if sub == nil {
		sub = &domain.Subscription{ProductID: productID}
		a.Subscription = sub
	}
	sub.Status = domain.SubscriptionCancelled
	return nil
}

func (s *fakeStore) Append(_ context.Context, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn.CreatedAt = time.Now().UTC()
	s.txns = append(s.txns, *txn)
	return nil
}

func (s *fakeStore) ListByUserID(_ context.Context, userID string, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for i := len(s.txns) - 1; i >= 0 && len(out) < limit; i-- {
		if s.txns[i].UserID == userID {
			out = append(out, s.txns[i])
		}
	}
	return out, nil
}

func (s *fakeStore) MarkProcessed(_ context.Context, eventID string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events[eventID] {
		return false, nil
	}
	s.events[eventID] = true
	return true, nil
}

func (s *fakeStore) Forget(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}

const testWebhookSecret = "test-webhook-secret"

func newTestApp(t *testing.T) (*App, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	catalog, err := billing.ParseCatalog(
		`{"com.aemove.premium.monthly":{"tier":"premium","monthly_credits":100}}`,
		`{"com.aemove.credits.10":10}`,
	)
	if err != nil {
		t.Fatalf("ParseCatalog() error: %v", err)
	}

	mutator := ledger.NewMutator(store, store, zerolog.Nop())
	app := &App{
		Logger:     zerolog.Nop(),
		Mutator:    mutator,
		Reconciler: billing.NewReconciler(catalog, mutator, store, store, zerolog.Nop()),
		Verifier:   billing.NewSignatureVerifier(testWebhookSecret),
		Accounts:   store,
		Txns:       store,
	}
	return app, store
}
