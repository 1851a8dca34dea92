package config

import "testing"

func TestResolveDefaults_DeriveDriver(t *testing.T) {
	cfg := &Config{DBDriver: "auto"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("ResolveDefaults: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.DBDriver)
	}

	cfg = &Config{DBDriver: "", PostgresDSN: "postgres://localhost/cinebot"}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("ResolveDefaults: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("expected postgres when DSN set, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_Rejections(t *testing.T) {
	cfg := &Config{DBDriver: "mongodb"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}

	cfg = &Config{DBDriver: "postgres"}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() {
		t.Fatal("expected testing environment")
	}
	if cfg.RateLimitEvents != 20 || cfg.RateLimitWindow != 60 {
		t.Fatalf("unexpected rate policy: %d/%ds", cfg.RateLimitEvents, cfg.RateLimitWindow)
	}
	if got := cfg.SessionTTL().Minutes(); got != 30 {
		t.Fatalf("unexpected session TTL: %v min", got)
	}
}
