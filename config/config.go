package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yml"

var envConfigPaths = map[Environment]string{
	EnvironmentProduction: "config/config.production.yml",
	EnvironmentStaging:    "config/config.staging.yml",
}

type Config struct {
	App          AppConfig          `yaml:"app"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Presentation PresentationConfig `yaml:"presentation"`
	Storage      StorageConfig      `yaml:"storage"`
	MarketData   MarketDataConfig   `yaml:"market_data"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Status       StatusConfig       `yaml:"status"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
	// UIOutput receives log lines while the terminal UI owns stdout.
	UIOutput string `yaml:"ui_output"`
}

type MetricsConfig struct {
	Refresh      bool `yaml:"refresh"`
	EffectBuffer bool `yaml:"effect_buffer"`
}

type PresentationConfig struct {
	StopTimeout  time.Duration `yaml:"stop_timeout"`
	EffectBuffer int           `yaml:"effect_buffer"`
	LoadDelay    time.Duration `yaml:"load_delay"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"`
	SQLitePath  string `yaml:"sqlite_path"`
	SeedSamples bool   `yaml:"seed_samples"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type WatchEntry struct {
	Symbol   string `yaml:"symbol"`
	Interval string `yaml:"interval"`
}

type MarketDataConfig struct {
	Source         string          `yaml:"source"`
	Symbols        []string        `yaml:"symbols"`
	Watchlist      []WatchEntry    `yaml:"watchlist"`
	RestURL        string          `yaml:"rest_url"`
	StreamURL      string          `yaml:"stream_url"`
	Timeout        time.Duration   `yaml:"timeout"`
	MaxAge         time.Duration   `yaml:"max_age"`
	RefreshDays    int             `yaml:"refresh_days"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	ReconnectDelay time.Duration   `yaml:"reconnect_delay"`
	ClosedOnly     bool            `yaml:"closed_only"`
}

type ScheduleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	RefreshCron string `yaml:"refresh_cron"`
}

// StatusConfig drives the JSON status API that serve exposes.
type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	History int    `yaml:"history"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		App: AppConfig{Name: "AlgoCrafter", Version: "dev"},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			UIOutput: "algocrafter.log",
		},
		Metrics: MetricsConfig{Refresh: true, EffectBuffer: true},
		Presentation: PresentationConfig{
			StopTimeout:  5 * time.Second,
			EffectBuffer: 64,
			LoadDelay:    2 * time.Second,
		},
		Storage: StorageConfig{Backend: "memory", SQLitePath: "algocrafter.db", SeedSamples: true},
		MarketData: MarketDataConfig{
			Source:         "sample",
			Symbols:        []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"},
			RestURL:        "https://api.binance.com",
			StreamURL:      "wss://stream.binance.com:9443",
			Timeout:        10 * time.Second,
			MaxAge:         15 * time.Minute,
			RefreshDays:    7,
			RateLimit:      RateLimitConfig{RequestsPerSecond: 5, BurstSize: 5},
			ReconnectDelay: 5 * time.Second,
			ClosedOnly:     true,
		},
		Schedule: ScheduleConfig{RefreshCron: "0 */5 * * * *"},
		Status:   StatusConfig{Address: ":8080", History: 200},
	}
}

// ResolvePath picks the environment specific file for APP_ENV when the
// caller asked for the default path.
func ResolvePath(path string) string {
	return resolveEnvSpecificPath(path, DefaultPath, envConfigPaths)
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config, AppEnvironment()); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("ALGOCRAFTER_STORAGE"); v != "" {
		config.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ALGOCRAFTER_DB_PATH"); v != "" {
		config.Storage.SQLitePath = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALGOCRAFTER_MARKET_SOURCE"); v != "" {
		config.MarketData.Source = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("BINANCE_REST_URL"); v != "" {
		config.MarketData.RestURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("BINANCE_STREAM_URL"); v != "" {
		config.MarketData.StreamURL = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config, env Environment) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if cfg.Presentation.StopTimeout <= 0 {
		return fmt.Errorf("presentation.stop_timeout must be greater than 0")
	}
	if cfg.Presentation.EffectBuffer <= 0 {
		return fmt.Errorf("presentation.effect_buffer must be greater than 0")
	}
	if cfg.Presentation.LoadDelay < 0 {
		return fmt.Errorf("presentation.load_delay must not be negative")
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.Storage.SQLitePath) == "" {
			return fmt.Errorf("storage.sqlite_path is required when backend is sqlite")
		}
	default:
		return fmt.Errorf("storage.backend '%s' is invalid", cfg.Storage.Backend)
	}

	md := cfg.MarketData
	switch md.Source {
	case "sample":
	case "binance":
		if md.RestURL == "" || md.StreamURL == "" {
			return fmt.Errorf("market_data.rest_url and market_data.stream_url are required for binance")
		}
	default:
		return fmt.Errorf("market_data.source '%s' is invalid", md.Source)
	}
	if len(md.Symbols) == 0 {
		return fmt.Errorf("market_data.symbols must not be empty")
	}
	for _, w := range md.Watchlist {
		if strings.TrimSpace(w.Symbol) == "" || strings.TrimSpace(w.Interval) == "" {
			return fmt.Errorf("market_data.watchlist entries need symbol and interval")
		}
	}
	if md.Timeout <= 0 {
		return fmt.Errorf("market_data.timeout must be greater than 0")
	}
	if md.MaxAge <= 0 {
		return fmt.Errorf("market_data.max_age must be greater than 0")
	}
	if md.RefreshDays < 1 || md.RefreshDays > 30 {
		return fmt.Errorf("market_data.refresh_days must be between 1 and 30")
	}
	if md.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("market_data.rate_limit.requests_per_second must be greater than 0")
	}
	if md.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("market_data.rate_limit.burst_size must be greater than 0")
	}
	if md.ReconnectDelay <= 0 {
		return fmt.Errorf("market_data.reconnect_delay must be greater than 0")
	}

	if cfg.Schedule.Enabled && strings.TrimSpace(cfg.Schedule.RefreshCron) == "" {
		return fmt.Errorf("schedule.refresh_cron is required when the schedule is enabled")
	}

	if cfg.Status.Enabled && cfg.Status.History <= 0 {
		return fmt.Errorf("status.history must be greater than 0")
	}

	return env.validate(cfg)
}
