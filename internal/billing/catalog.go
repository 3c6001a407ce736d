package billing

import (
	"encoding/json"
	"fmt"

	"ledger/internal/domain"
)

// SubscriptionProduct describes the entitlement effect of one subscription
// product: the tier it grants and the credits added on each activation or
// renewal.
type SubscriptionProduct struct {
	Tier           domain.Tier `json:"tier"`
	MonthlyCredits int64       `json:"monthly_credits"`
}

// Catalog maps billing-provider product ids to their entitlement effects. It
// is immutable after construction and injected into the reconciler; unknown
// product ids must never grant anything.
type Catalog struct {
	Subscriptions map[string]SubscriptionProduct
	CreditPacks   map[string]int64
}

// ParseCatalog builds a Catalog from the two JSON tables supplied via
// configuration: productID -> {tier, monthly_credits} for subscriptions and
// productID -> credits for one-time packs. Empty inputs yield an empty table.
func ParseCatalog(subscriptionsJSON, creditPacksJSON string) (Catalog, error) {
	catalog := Catalog{
		Subscriptions: map[string]SubscriptionProduct{},
		CreditPacks:   map[string]int64{},
	}

	if subscriptionsJSON != "" {
		if err := json.Unmarshal([]byte(subscriptionsJSON), &catalog.Subscriptions); err != nil {
			return Catalog{}, fmt.Errorf("parse subscription products: %w", err)
		}
	}
	if creditPacksJSON != "" {
		if err := json.Unmarshal([]byte(creditPacksJSON), &catalog.CreditPacks); err != nil {
			return Catalog{}, fmt.Errorf("parse credit pack products: %w", err)
		}
	}

	for productID, product := range catalog.Subscriptions {
		if product.Tier == "" {
			return Catalog{}, fmt.Errorf("subscription product %q has no tier", productID)
		}
		if product.MonthlyCredits < 0 {
			return Catalog{}, fmt.Errorf("subscription product %q has negative credits", productID)
		}
	}
	for productID, credits := range catalog.CreditPacks {
		if credits <= 0 {
			return Catalog{}, fmt.Errorf("credit pack %q must grant a positive amount", productID)
		}
	}

	return catalog, nil
}

// Subscription looks up a subscription product.
func (c Catalog) Subscription(productID string) (SubscriptionProduct, bool) {
	p, ok := c.Subscriptions[productID]
	return p, ok
}

// CreditPack looks up a one-time credit pack.
func (c Catalog) CreditPack(productID string) (int64, bool) {
	credits, ok := c.CreditPacks[productID]
	return credits, ok
}
