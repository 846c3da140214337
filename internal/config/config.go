package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all spendlens configuration.
type Config struct {
	General GeneralConfig           `toml:"general"`
	Engine  EngineConfig            `toml:"engine"`
	Cache   CacheConfig             `toml:"cache"`
	Redis   RedisConfig             `toml:"redis"`
	Store   StoreConfig             `toml:"store"`
	Log     LogConfig               `toml:"log"`
	Server  ServerConfig            `toml:"server"`
	Budget  BudgetConfig            `toml:"budget"`
	Policy  map[string]PolicyConfig `toml:"policy,omitempty"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultUser      string `toml:"default_user"`
	DataDir          string `toml:"data_dir,omitempty"`
	ForecastHorizon  int    `toml:"forecast_horizon"`
	DefaultTimeframe string `toml:"default_timeframe"`
	LookbackDays     int    `toml:"lookback_days"`
	Theme            string `toml:"theme,omitempty"`
}

// EngineConfig holds strategy thresholds and model settings.
type EngineConfig struct {
	EnsembleMinDays    int     `toml:"ensemble_min_days"`
	AdvancedBudgetDays int     `toml:"advanced_budget_days"`
	Trees              int     `toml:"trees"`
	MaxDepth           int     `toml:"max_depth"`
	MinLeaf            int     `toml:"min_leaf"`
	FeatureFraction    float64 `toml:"feature_fraction"`
	Seed               int64   `toml:"seed"`
	CVFolds            int     `toml:"cv_folds"`
	MaxHorizonDays     int     `toml:"max_horizon_days"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	PersistResults     bool    `toml:"persist_results"`
	DisableEnsemble    bool    `toml:"disable_ensemble,omitempty"`
	DisableAdvanced    bool    `toml:"disable_advanced_budget,omitempty"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend    string `toml:"backend"` // memory, redis or none
	TTLSeconds int    `toml:"ttl_seconds"`
	Prefix     string `toml:"prefix"`
}

// TTL returns the cache time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RedisConfig holds connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db"`
}

// StoreConfig holds the SQLite location.
type StoreConfig struct {
	Path string `toml:"path,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr                   string `toml:"addr"`
	RefreshIntervalSeconds int    `toml:"refresh_interval_seconds"`
	EventBuffer            int    `toml:"event_buffer"`
}

// RefreshInterval returns the background refresh period.
func (s ServerConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSeconds) * time.Second
}

// BudgetConfig holds budget defaults.
type BudgetConfig struct {
	Period        string   `toml:"period"`
	SavingsGoal   float64  `toml:"savings_goal,omitempty"`
	MonthlyBudget *float64 `toml:"monthly_budget,omitempty"`
}

// PolicyConfig overrides one category's floor (weekly) or elasticity.
type PolicyConfig struct {
	Floor      *float64 `toml:"floor,omitempty"`
	Elasticity *float64 `toml:"elasticity,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultUser:      "default",
			ForecastHorizon:  7,
			DefaultTimeframe: "daily",
			LookbackDays:     90,
			Theme:            "flexoki-dark",
		},
		Engine: EngineConfig{
			EnsembleMinDays:    60,
			AdvancedBudgetDays: 56,
			Trees:              50,
			MaxDepth:           8,
			MinLeaf:            3,
			FeatureFraction:    0.6,
			Seed:               42,
			CVFolds:            3,
			MaxHorizonDays:     366,
			TimeoutSeconds:     30,
			PersistResults:     true,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSeconds: 300,
			Prefix:     "spendlens",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8484",
			RefreshIntervalSeconds: 300,
			EventBuffer:            100,
		},
		Budget: BudgetConfig{
			Period: "monthly",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendlens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spendlens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file at path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	applyEnv(&cfg)

	return cfg, nil
}

// applyEnv lets deployment settings come from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SPENDLENS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Cache.Backend = "redis"
	}
	if v := os.Getenv("SPENDLENS_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SPENDLENS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-supplied config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// MonthlyBudget returns the configured monthly budget, or 0.
func (c Config) MonthlyBudget() float64 {
	if c.Budget.MonthlyBudget == nil {
		return 0
	}
	return *c.Budget.MonthlyBudget
}
