package config

import "testing"

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("INGESTGATE_ENV", "dev")
	t.Setenv("INGESTGATE_CALLBACK_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Billing.CostPerUnit != 2 {
		t.Fatalf("expected default cost per unit 2, got %d", cfg.Billing.CostPerUnit)
	}
	if cfg.Storage.Bucket != "ssfs-inbound" {
		t.Fatalf("expected default bucket, got %q", cfg.Storage.Bucket)
	}
}

func TestLoadRequiresCallbackURLOutsideLocal(t *testing.T) {
	t.Setenv("INGESTGATE_ENV", "production")
	t.Setenv("INGESTGATE_CALLBACK_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing callback URL in production")
	}
}

func TestLoadRejectsInvalidCostPerUnit(t *testing.T) {
	t.Setenv("INGESTGATE_ENV", "dev")
	t.Setenv("INGESTGATE_COST_PER_UNIT", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for zero cost per unit")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INGESTGATE_ENV", "production")
	t.Setenv("INGESTGATE_PORT", "9191")
	t.Setenv("INGESTGATE_CALLBACK_URL", "https://processor.internal/notify")
	t.Setenv("INGESTGATE_BUCKET", "ssfs-prod")
	t.Setenv("INGESTGATE_COST_PER_UNIT", "5")
	t.Setenv("INGESTGATE_ADMIN_TOKEN", "ops-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Downstream.CallbackURL != "https://processor.internal/notify" {
		t.Fatalf("unexpected callback URL %q", cfg.Downstream.CallbackURL)
	}
	if cfg.Billing.CostPerUnit != 5 {
		t.Fatalf("expected cost per unit 5, got %d", cfg.Billing.CostPerUnit)
	}
	if cfg.IsLocalDevelopment() {
		t.Fatal("production must not report local development")
	}
}
