package payments

import "testing"

func TestCatalogResolveKnownPlan(t *testing.T) {
	catalog := DefaultCatalog()

	plan := catalog.Resolve("model-premium", 99)
	if plan.Type != "model-premium" {
		t.Fatalf("Resolve(model-premium) type = %q", plan.Type)
	}
	if plan.DisplayName != "Model Premium" {
		t.Fatalf("Resolve(model-premium) name = %q", plan.DisplayName)
	}
	if plan.NominalPrice != 29 {
		t.Fatalf("expected table price 29, got %v", plan.NominalPrice)
	}
}

func TestCatalogResolveUnknownPlanSynthesizes(t *testing.T) {
	catalog := DefaultCatalog()

	plan := catalog.Resolve("mystery-form", 12.5)
	if plan.Type != "mystery-form" || plan.DisplayName != "mystery-form" {
		t.Fatalf("expected external id to carry through, got type=%q name=%q", plan.Type, plan.DisplayName)
	}
	if plan.NominalPrice != 12.5 {
		t.Fatalf("expected fallback amount as price, got %v", plan.NominalPrice)
	}
}
