package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/spendlens/internal/model"
)

func TestLoadFromMissingReturnsDefaults(t *testing.T) {
	t.Setenv("SPENDLENS_REDIS_ADDR", "")
	t.Setenv("SPENDLENS_DB", "")
	t.Setenv("SPENDLENS_LOG_LEVEL", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Engine.EnsembleMinDays != 60 || cfg.Engine.AdvancedBudgetDays != 56 {
		t.Fatalf("thresholds = %d/%d, want 60/56", cfg.Engine.EnsembleMinDays, cfg.Engine.AdvancedBudgetDays)
	}
	if cfg.Cache.Backend != "memory" {
		t.Fatalf("cache backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("SPENDLENS_REDIS_ADDR", "")
	t.Setenv("SPENDLENS_DB", "")
	t.Setenv("SPENDLENS_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "spendlens", "config.toml")

	cfg := DefaultConfig()
	budget := 1800.0
	floor := 75.0
	cfg.Budget.MonthlyBudget = &budget
	cfg.Policy = map[string]PolicyConfig{model.Groceries: {Floor: &floor}}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.MonthlyBudget() != 1800 {
		t.Fatalf("MonthlyBudget = %v, want 1800", got.MonthlyBudget())
	}
	if f := got.BudgetPolicy().Floors[model.Groceries]; f != 75 {
		t.Fatalf("Groceries floor = %v, want 75", f)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPENDLENS_REDIS_ADDR", "cache:6379")
	t.Setenv("SPENDLENS_DB", "/tmp/s.db")
	t.Setenv("SPENDLENS_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Cache.Backend != "redis" {
		t.Fatalf("redis = %q/%q", cfg.Redis.Addr, cfg.Cache.Backend)
	}
	if cfg.Store.Path != "/tmp/s.db" {
		t.Fatalf("store path = %q", cfg.Store.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[engine\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBudgetPolicyDefaultsAndOverrides(t *testing.T) {
	e := 2.5
	negative := -1.0
	cfg := DefaultConfig()
	cfg.Policy = map[string]PolicyConfig{
		"shopping": {Elasticity: &e},
		"bills":    {Floor: &negative},
	}
	p := cfg.BudgetPolicy()

	if p.Elasticity[model.Shopping] != 2.5 {
		t.Fatalf("Shopping elasticity = %v, want 2.5", p.Elasticity[model.Shopping])
	}
	if p.Floors[model.Bills] != DefaultPolicy[model.Bills].Floor {
		t.Fatalf("negative floor override should be ignored, got %v", p.Floors[model.Bills])
	}
	for _, c := range model.Categories {
		if _, ok := p.Floors[c]; !ok {
			t.Fatalf("missing floor for %s", c)
		}
	}
}

func TestLookupPolicyNormalizes(t *testing.T) {
	if got := LookupPolicy("  GROCERIES "); got != DefaultPolicy[model.Groceries] {
		t.Fatalf("LookupPolicy(GROCERIES) = %+v", got)
	}
	if got := LookupPolicy("crypto"); got != DefaultPolicy[model.Other] {
		t.Fatalf("unknown category = %+v, want Other", got)
	}
}
