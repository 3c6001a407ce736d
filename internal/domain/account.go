package domain

import "time"

// Tier enumerates entitlement levels granted by an active subscription.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// SubscriptionStatus enumerates subscription lifecycle states.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription records the billing subscription currently attached to an
// account. Absent entirely for accounts that never had one.
type Subscription struct {
	ProductID string
	Status    SubscriptionStatus
	UpdatedAt time.Time
}

// Account holds the spendable credit balance and entitlement state for one
// user. Accounts are created implicitly by the first committed mutation and
// are never deleted.
type Account struct {
	UserID       string
	Credits      int64
	Tier         Tier
	Subscription *Subscription
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFree reports whether the account is on the free tier.
func (a Account) IsFree() bool {
	return a.Tier == TierFree
}
