package billing

import (
	"encoding/json"
	"fmt"

	"ledger/internal/domain"
)

// Event kinds the reconciler acts on. Providers add kinds over time; anything
// else normalizes fine and is ignored downstream.
const (
	EventSubscriptionActivated = "subscription_activated"
	EventSubscriptionRenewed   = "subscription_renewed"
	EventSubscriptionCancelled = "subscription_cancelled"
	EventSubscriptionExpired   = "subscription_expired"
	EventCreditPackPurchased   = "non_subscription_purchase_activated"
)

// Event is the canonical form of a provider webhook payload.
type Event struct {
	Type      string
	ID        string
	UserID    string
	ProductID string
	ProfileID string
	Raw       json.RawMessage
}

// Provider envelopes nest the interesting payload at varying depths. Each
// list is tried in order; the first present string wins.
var (
	payloadRoots = [][]string{{"data"}, {"event_data"}}

	userIDPaths = [][]string{
		{"attributes", "customer_user_id"},
		{"customer_user_id"},
		{"user_id"},
	}

	productIDPaths = [][]string{
		{"attributes", "vendor_product_id"},
		{"vendor_product_id"},
	}

	eventIDPaths = [][]string{
		{"event_id"},
		{"id"},
	}
)

// NormalizeEvent decodes a raw provider envelope and extracts the canonical
// (type, user, product) triple. A payload without a resolvable user id is
// reported as domain.ErrNoUserID: many provider event kinds carry no app user
// linkage and the caller drops them without treating that as a failure.
func NormalizeEvent(raw []byte) (*Event, error) {
	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	payload := envelope
	for _, root := range payloadRoots {
		if nested, ok := lookupMap(envelope, root); ok {
			payload = nested
			break
		}
	}

	ev := &Event{
		Type:      firstString(envelope, [][]string{{"event_type"}}),
		ID:        firstString(envelope, eventIDPaths),
		UserID:    firstString(payload, userIDPaths),
		ProductID: firstString(payload, productIDPaths),
		Raw:       json.RawMessage(raw),
	}

	if ev.ProfileID = firstString(envelope, [][]string{{"profile_id"}}); ev.ProfileID == "" {
		ev.ProfileID = firstString(payload, [][]string{{"profile_id"}})
	}

	if ev.UserID == "" {
		return ev, domain.ErrNoUserID
	}
	return ev, nil
}

// firstString walks the ordered paths and returns the first non-empty string
// value found.
func firstString(m map[string]any, paths [][]string) string {
	for _, path := range paths {
		cursor := m
		for i, key := range path {
			if i == len(path)-1 {
				if s, ok := cursor[key].(string); ok && s != "" {
					return s
				}
				break
			}
			next, ok := cursor[key].(map[string]any)
			if !ok {
				break
			}
			cursor = next
		}
	}
	return ""
}

func lookupMap(m map[string]any, path []string) (map[string]any, bool) {
	cursor := m
	for _, key := range path {
		next, ok := cursor[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cursor = next
	}
	return cursor, true
}
