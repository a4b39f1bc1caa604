package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// writeTempConfig writes content to a temporary YAML file and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv("APP_ENV", "")
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `app:
  name: "TestApp"
  version: "1.0"
presentation:
  stop_timeout: 1s
storage:
  backend: sqlite
  sqlite_path: /tmp/test.db
market_data:
  symbols: ["BTCUSDT"]
  watchlist:
    - symbol: BTCUSDT
      interval: 1h
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.App.Name)
	}
	if cfg.Presentation.StopTimeout != time.Second {
		t.Errorf("unexpected stop timeout: %s", cfg.Presentation.StopTimeout)
	}
	if cfg.Presentation.EffectBuffer != 64 {
		t.Errorf("default effect buffer not applied: %d", cfg.Presentation.EffectBuffer)
	}
	if cfg.MarketData.MaxAge != 15*time.Minute {
		t.Errorf("default max age not applied: %s", cfg.MarketData.MaxAge)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "/tmp/test.db" {
		t.Errorf("unexpected storage: %+v", cfg.Storage)
	}
	if len(cfg.MarketData.Watchlist) != 1 || cfg.MarketData.Watchlist[0].Interval != "1h" {
		t.Errorf("unexpected watchlist: %+v", cfg.MarketData.Watchlist)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ALGOCRAFTER_STORAGE", "SQLite")
	t.Setenv("ALGOCRAFTER_DB_PATH", "/var/lib/algocrafter.db")
	path := writeTempConfig(t, "app:\n  name: x\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.SQLitePath != "/var/lib/algocrafter.db" {
		t.Fatalf("env overrides not applied: %+v", cfg.Storage)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"bad backend", "storage:\n  backend: redis\n", "storage.backend"},
		{"bad source", "market_data:\n  source: kraken\n", "market_data.source"},
		{"zero buffer", "presentation:\n  effect_buffer: 0\n", "presentation.effect_buffer"},
		{"zero stop timeout", "presentation:\n  stop_timeout: 0s\n", "presentation.stop_timeout"},
		{"refresh days", "market_data:\n  refresh_days: 31\n", "market_data.refresh_days"},
		{"watch entry", "market_data:\n  watchlist:\n    - symbol: BTCUSDT\n", "market_data.watchlist"},
		{"empty cron", "schedule:\n  enabled: true\n  refresh_cron: \"\"\n", "schedule.refresh_cron"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeTempConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("does-not-exist.yml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	if got := ResolvePath(""); got != "config/config.production.yml" {
		t.Fatalf("unexpected path for prod: %s", got)
	}
	if got := ResolvePath("custom.yml"); got != "custom.yml" {
		t.Fatalf("explicit path must win: %s", got)
	}

	t.Setenv("APP_ENV", "")
	if got := ResolvePath(""); got != DefaultPath {
		t.Fatalf("unexpected default path: %s", got)
	}
}

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"":           EnvironmentDevelopment,
		" Stagging ": EnvironmentStaging,
		"PROD":       EnvironmentProduction,
		"qa":         Environment("qa"),
	}
	for input, want := range cases {
		if got := ParseEnvironment(input); got != want {
			t.Fatalf("ParseEnvironment(%q) = %q, want %q", input, got, want)
		}
	}

	t.Setenv("APP_ENV", "stagging")
	if env := AppEnvironment(); env != EnvironmentStaging || !env.IsProductionLike() {
		t.Fatalf("staging alias not normalised: %s", env)
	}
	if EnvironmentDevelopment.IsProductionLike() {
		t.Fatalf("development must not be production-like")
	}
}

func TestValidateConfigPerEnvironment(t *testing.T) {
	cases := []struct {
		name    string
		env     Environment
		source  string
		backend string
		want    string
	}{
		{"development allows sample", EnvironmentDevelopment, "sample", "memory", ""},
		{"staging refuses sample", EnvironmentStaging, "sample", "sqlite", "market_data.source 'sample'"},
		{"staging allows memory", EnvironmentStaging, "binance", "memory", ""},
		{"production refuses memory", EnvironmentProduction, "binance", "memory", "storage.backend 'memory'"},
		{"production with binance and sqlite", EnvironmentProduction, "binance", "sqlite", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.MarketData.Source = tc.source
			cfg.Storage.Backend = tc.backend
			err := validateConfig(&cfg, tc.env)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfigRefusesSampleInProduction(t *testing.T) {
	path := writeTempConfig(t, "storage:\n  backend: sqlite\n")
	t.Setenv("APP_ENV", "production")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "not allowed in production") {
		t.Fatalf("expected production profile error, got %v", err)
	}
}
