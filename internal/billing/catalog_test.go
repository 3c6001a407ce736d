package billing

import (
	"testing"

	"ledger/internal/domain"
)

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog(
		`{"com.aemove.premium.monthly":{"tier":"premium","monthly_credits":100}}`,
		`{"com.aemove.credits.10":10}`,
	)
	if err != nil {
		t.Fatalf("ParseCatalog() error: %v", err)
	}

	product, ok := catalog.Subscription("com.aemove.premium.monthly")
	if !ok {
		t.Fatalf("subscription product missing")
	}
	if product.Tier != domain.TierPremium || product.MonthlyCredits != 100 {
		t.Fatalf("unexpected product: %+v", product)
	}

	credits, ok := catalog.CreditPack("com.aemove.credits.10")
	if !ok || credits != 10 {
		t.Fatalf("CreditPack() = %d, %v", credits, ok)
	}

	if _, ok := catalog.Subscription("unknown"); ok {
		t.Fatalf("unknown product resolved")
	}
}

func TestParseCatalogEmptyInputs(t *testing.T) {
	catalog, err := ParseCatalog("", "")
	if err != nil {
		t.Fatalf("ParseCatalog() error: %v", err)
	}
	if len(catalog.Subscriptions) != 0 || len(catalog.CreditPacks) != 0 {
		t.Fatalf("expected empty catalog, got %+v", catalog)
	}
}

func TestParseCatalogRejectsBadTables(t *testing.T) {
	if _, err := ParseCatalog(`{"p":{"monthly_credits":10}}`, ""); err == nil {
		t.Fatalf("expected error for missing tier")
	}
	if _, err := ParseCatalog("", `{"p":0}`); err == nil {
		t.Fatalf("expected error for non-positive pack")
	}
	if _, err := ParseCatalog(`not json`, ""); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
