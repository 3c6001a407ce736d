package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ledger/internal/billing"
	"ledger/internal/domain"
)

func signWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, app *App, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/webhooks/adapty", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("x-adapty-signature", signature)
	}
	rr := httptest.NewRecorder()
	app.AdaptyWebhook(rr, req)
	return rr
}

func TestAdaptyWebhookRejectsNonPOST(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/v1/webhooks/adapty", nil)
	rr := httptest.NewRecorder()
	app.AdaptyWebhook(rr, req)

	if rr.Code != 405 {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestAdaptyWebhookWithoutConfiguredSecret(t *testing.T) {
	app, _ := newTestApp(t)
	app.Verifier = billing.NewSignatureVerifier("")

	rr := postWebhook(t, app, []byte(`{}`), "sig")
	if rr.Code != 500 {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "not_configured" {
		t.Fatalf("error code = %q, want not_configured", payload["error"])
	}
}

func TestAdaptyWebhookRequiresSignatureHeader(t *testing.T) {
	app, _ := newTestApp(t)

	rr := postWebhook(t, app, []byte(`{}`), "")
	if rr.Code != 401 {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "missing_signature" {
		t.Fatalf("error code = %q, want missing_signature", payload["error"])
	}
}

func TestAdaptyWebhookRejectsTamperedBody(t *testing.T) {
	app, store := newTestApp(t)

	body := []byte(`{"event_type":"subscription_activated","data":{"attributes":{"customer_user_id":"u1","vendor_product_id":"com.aemove.premium.monthly"}}}`)
	signature := signWebhook(testWebhookSecret, body)

	tampered := bytes.Replace(body, []byte("u1"), []byte("u2"), 1)
	rr := postWebhook(t, app, tampered, signature)

	if rr.Code != 401 {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != "invalid_signature" {
		t.Fatalf("error code = %q, want invalid_signature", payload["error"])
	}
	if len(store.accounts) != 0 {
		t.Fatalf("rejected webhook mutated state")
	}

	// The identical unmodified pair is accepted.
	rr = postWebhook(t, app, body, signature)
	if rr.Code != 200 {
		t.Fatalf("status = %d for untampered body, want 200 (body %s)", rr.Code, rr.Body.String())
	}
}

func TestAdaptyWebhookActivationGrantsEntitlements(t *testing.T) {
	app, store := newTestApp(t)

	body := []byte(`{"event_type":"subscription_activated","data":{"attributes":{"customer_user_id":"u1","vendor_product_id":"com.aemove.premium.monthly"}}}`)
	rr := postWebhook(t, app, body, signWebhook(testWebhookSecret, body))

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}

	account := store.account("u1")
	if account.Tier != domain.TierPremium {
		t.Fatalf("tier = %q, want premium", account.Tier)
	}
	if account.Credits != 100 {
		t.Fatalf("credits = %d, want 100", account.Credits)
	}
	if account.Subscription == nil || account.Subscription.Status != domain.SubscriptionActive {
		t.Fatalf("subscription = %+v, want active", account.Subscription)
	}
	if len(store.txns) != 1 || store.txns[0].Source != domain.SourceSubscription || store.txns[0].Amount != 100 {
		t.Fatalf("unexpected audit trail: %+v", store.txns)
	}
}

func TestAdaptyWebhookCancellationDowngrades(t *testing.T) {
	app, store := newTestApp(t)
	account := store.account("u1")
	account.Credits = 40
	account.Tier = domain.TierPremium
	account.Subscription = &domain.Subscription{ProductID: "com.aemove.premium.monthly", Status: domain.SubscriptionActive}

	body := []byte(`{"event_type":"subscription_cancelled","data":{"attributes":{"customer_user_id":"u1","vendor_product_id":"com.aemove.premium.monthly"}}}`)
	rr := postWebhook(t, app, body, signWebhook(testWebhookSecret, body))

	if rr.Code != 200 {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if account.Tier != domain.TierFree {
		t.Fatalf("tier = %q, want free", account.Tier)
	}
	if account.Subscription.Status != domain.SubscriptionCancelled {
		t.Fatalf("subscription status = %q, want cancelled", account.Subscription.Status)
	}
	if account.Credits != 40 {
		t.Fatalf("credits = %d, cancellation must not touch the balance", account.Credits)
	}
}

func TestAdaptyWebhookUnknownEventAndProductStillOK(t *testing.T) {
	app, store := newTestApp(t)

	for _, body := range [][]byte{
		[]byte(`{"event_type":"trial_started","data":{"customer_user_id":"u1"}}`),
		[]byte(`{"event_type":"subscription_activated","data":{"attributes":{"customer_user_id":"u1","vendor_product_id":"com.unknown"}}}`),
		[]byte(`{"event_type":"billing_issue_detected"}`),
	} {
		rr := postWebhook(t, app, body, signWebhook(testWebhookSecret, body))
		if rr.Code != 200 {
			t.Fatalf("status = %d for %s, want 200", rr.Code, body)
		}
	}
	if len(store.txns) != 0 {
		t.Fatalf("no-op events produced audit records: %+v", store.txns)
	}
	if a, ok := store.accounts["u1"]; ok && (a.Credits != 0 || a.Tier != domain.TierFree) {
		t.Fatalf("no-op events mutated the account: %+v", a)
	}
}

func TestAdaptyWebhookRejectsInvalidJSON(t *testing.T) {
	app, _ := newTestApp(t)

	body := []byte(`{"event_type":`)
	rr := postWebhook(t, app, body, signWebhook(testWebhookSecret, body))
	if rr.Code != 400 {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAdaptyWebhookDeduplicatesRedelivery(t *testing.T) {
	app, store := newTestApp(t)

	body := []byte(`{"event_type":"non_subscription_purchase_activated","event_id":"evt-1","data":{"attributes":{"customer_user_id":"u1","vendor_product_id":"com.aemove.credits.10"}}}`)
	signature := signWebhook(testWebhookSecret, body)

	for i := 0; i < 3; i++ {
		rr := postWebhook(t, app, body, signature)
		if rr.Code != 200 {
			t.Fatalf("delivery %d: status = %d, want 200", i, rr.Code)
		}
	}

	if store.account("u1").Credits != 10 {
		t.Fatalf("credits = %d after redelivery, want 10", store.account("u1").Credits)
	}
	if len(store.txns) != 1 {
		t.Fatalf("redelivery produced %d audit records, want 1", len(store.txns))
	}
}
