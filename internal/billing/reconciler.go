package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ledger/internal/domain"
)

// CreditGranter is the slice of the balance mutator the reconciler needs.
type CreditGranter interface {
	Credit(ctx context.Context, userID string, amount int64, source, productID string) (int64, error)
}

// SubscriptionStore is the slice of the account repository the reconciler
// needs for entitlement writes.
type SubscriptionStore interface {
	ApplySubscription(ctx context.Context, userID, productID string, tier domain.Tier) error
	CancelSubscription(ctx context.Context, userID, productID string) error
}

// Reconciler maps normalized billing events to entitlement-state transitions.
// Activation and cancellation are deliberately asymmetric: granting requires
// the product to be recognized in the catalog, downgrading never does, so a
// cancellation can never be blocked by an unknown product id.
type Reconciler struct {
	catalog  Catalog
	granter  CreditGranter
	accounts SubscriptionStore
	events   domain.WebhookEventRepository
	logger   zerolog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(catalog Catalog, granter CreditGranter, accounts SubscriptionStore, events domain.WebhookEventRepository, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		catalog:  catalog,
		granter:  granter,
		accounts: accounts,
		events:   events,
		logger:   logger,
	}
}

// Handle processes one raw webhook payload. A nil return means the event was
// fully handled, including the deliberate no-ops: undecipherable user
// linkage, unknown event kinds, unknown products and redelivered duplicates
// are all acknowledged so the provider stops retrying them. Only store
// failures surface as errors.
func (r *Reconciler) Handle(ctx context.Context, raw []byte) error {
	ev, err := NormalizeEvent(raw)
	if err != nil {
		if errors.Is(err, domain.ErrNoUserID) {
			r.logger.Warn().
				Str("event_type", ev.Type).
				Str("profile_id", ev.ProfileID).
				Msg("billing event carries no user id, dropping")
			return nil
		}
		return err
	}

	if ev.ID != "" {
		fresh, err := r.events.MarkProcessed(ctx, ev.ID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("record event id: %w", err)
		}
		if !fresh {
			r.logger.Info().
				Str("event_id", ev.ID).
				Str("event_type", ev.Type).
				Msg("duplicate billing event, skipping")
			return nil
		}
	}

	if err := r.apply(ctx, ev); err != nil {
		// Release the idempotency claim so the provider's redelivery gets a
		// clean retry. Best effort: a failed release only re-widens the
		// duplicate window back to the store failure itself.
		if ev.ID != "" {
			if ferr := r.events.Forget(ctx, ev.ID); ferr != nil {
				r.logger.Error().Err(ferr).
					Str("event_id", ev.ID).
					Msg("failed to release event id after processing error")
			}
		}
		return err
	}
	return nil
}

func (r *Reconciler) apply(ctx context.Context, ev *Event) error {
	switch ev.Type {
	case EventSubscriptionActivated, EventSubscriptionRenewed:
		return r.applySubscription(ctx, ev)
	case EventSubscriptionCancelled, EventSubscriptionExpired:
		return r.cancelSubscription(ctx, ev)
	case EventCreditPackPurchased:
		return r.applyCreditPack(ctx, ev)
	default:
		r.logger.Info().
			Str("event_type", ev.Type).
			Msg("unhandled billing event")
		return nil
	}
}

func (r *Reconciler) applySubscription(ctx context.Context, ev *Event) error {
	product, ok := r.catalog.Subscription(ev.ProductID)
	if !ok {
		r.logger.Warn().
			Str("product_id", ev.ProductID).
			Str("user_id", ev.UserID).
			Msg("unknown subscription product, dropping")
		return nil
	}

	if err := r.accounts.ApplySubscription(ctx, ev.UserID, ev.ProductID, product.Tier); err != nil {
		return fmt.Errorf("apply subscription: %w", err)
	}

	if product.MonthlyCredits > 0 {
		if _, err := r.granter.Credit(ctx, ev.UserID, product.MonthlyCredits, domain.SourceSubscription, ev.ProductID); err != nil {
			return fmt.Errorf("grant subscription credits: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) cancelSubscription(ctx context.Context, ev *Event) error {
	if err := r.accounts.CancelSubscription(ctx, ev.UserID, ev.ProductID); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	r.logger.Info().
		Str("user_id", ev.UserID).
		Str("product_id", ev.ProductID).
		Msg("subscription cancelled")
	return nil
}

func (r *Reconciler) applyCreditPack(ctx context.Context, ev *Event) error {
	credits, ok := r.catalog.CreditPack(ev.ProductID)
	if !ok {
		r.logger.Warn().
			Str("product_id", ev.ProductID).
			Str("user_id", ev.UserID).
			Msg("unknown credit pack, dropping")
		return nil
	}

	if _, err := r.granter.Credit(ctx, ev.UserID, credits, domain.SourceCreditPack, ev.ProductID); err != nil {
		return fmt.Errorf("grant credit pack: %w", err)
	}
	return nil
}
