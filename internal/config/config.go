// Package config loads and validates the simulation service configuration
// from a YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Market     MarketConfig     `mapstructure:"market"`
}

// SimulationConfig holds the run-loop tunables.
type SimulationConfig struct {
	Speed         float64       `mapstructure:"speed"`
	TickInterval  time.Duration `mapstructure:"tick_interval"`
	EventInterval time.Duration `mapstructure:"event_interval"`
	EventCount    int           `mapstructure:"event_count"`
	Categories    []string      `mapstructure:"categories"`
	NewsEnabled   bool          `mapstructure:"news_enabled"`
	RecencyWindow time.Duration `mapstructure:"recency_window"`
}

// LLMConfig holds the text-generation backend configuration.
type LLMConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// StorageConfig holds storage and persistence configuration.
type StorageConfig struct {
	MaxEventLogsPerRun  int           `mapstructure:"max_event_logs_per_run"`
	MaxSnapshotsPerRun  int           `mapstructure:"max_snapshots_per_run"`
	PersistenceInterval time.Duration `mapstructure:"persistence_interval"`
	FilePath            string        `mapstructure:"file_path"`
	DataDir             string        `mapstructure:"data_dir"`
}

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	ChatID         string `mapstructure:"chat_id"`
	Enabled        bool   `mapstructure:"enabled"`
	MinImpactLevel int    `mapstructure:"min_impact_level"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MarketConfig selects the parameter scenario the run is seeded from.
type MarketConfig struct {
	Scenario          string  `mapstructure:"scenario"`
	PerturbationScale float64 `mapstructure:"perturbation_scale"`
	Seed              int64   `mapstructure:"seed"`
	RealisticMoves    bool    `mapstructure:"realistic_moves"`
	RegressionModel   string  `mapstructure:"regression_model"`
	BlendWeight       float64 `mapstructure:"blend_weight"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("MARKETSIM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Simulation defaults
	v.SetDefault("simulation.speed", 1)
	v.SetDefault("simulation.tick_interval", "1s")
	v.SetDefault("simulation.event_interval", "6h")
	v.SetDefault("simulation.event_count", 1)
	v.SetDefault("simulation.news_enabled", true)
	v.SetDefault("simulation.recency_window", "1h")

	// LLM defaults
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2:3b")
	v.SetDefault("llm.max_tokens", 512)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.requests_per_sec", 1.0)

	// Storage defaults
	v.SetDefault("storage.max_event_logs_per_run", 1000)
	v.SetDefault("storage.max_snapshots_per_run", 500)
	v.SetDefault("storage.persistence_interval", "1m")
	v.SetDefault("storage.file_path", "./data/simengine.json")
	v.SetDefault("storage.data_dir", "./data")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.min_impact_level", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Market defaults
	v.SetDefault("market.scenario", "default")
	v.SetDefault("market.perturbation_scale", 0.1)
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.realistic_moves", false)
	v.SetDefault("market.blend_weight", 0)
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	validSpeeds := map[float64]bool{1: true, 2: true, 5: true, 10: true}
	if !validSpeeds[c.Simulation.Speed] {
		return fmt.Errorf("simulation.speed must be one of: 1, 2, 5, 10")
	}
	if c.Simulation.TickInterval < time.Second {
		return fmt.Errorf("simulation.tick_interval must be at least 1 second")
	}
	if c.Simulation.EventInterval <= 0 {
		return fmt.Errorf("simulation.event_interval must be positive")
	}
	if c.Simulation.EventCount < 1 {
		return fmt.Errorf("simulation.event_count must be at least 1")
	}
	if c.Simulation.RecencyWindow <= 0 {
		return fmt.Errorf("simulation.recency_window must be positive")
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be at least 1")
	}
	if c.LLM.Timeout < time.Second {
		return fmt.Errorf("llm.timeout must be at least 1 second")
	}

	if c.Storage.MaxEventLogsPerRun < 1 {
		return fmt.Errorf("storage.max_event_logs_per_run must be at least 1")
	}
	if c.Storage.MaxSnapshotsPerRun < 10 {
		return fmt.Errorf("storage.max_snapshots_per_run must be at least 10")
	}
	if c.Storage.PersistenceInterval < time.Second {
		return fmt.Errorf("storage.persistence_interval must be at least 1 second")
	}
	if c.Storage.FilePath == "" {
		return fmt.Errorf("storage.file_path is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MinImpactLevel < 1 || c.Telegram.MinImpactLevel > 5 {
		return fmt.Errorf("telegram.min_impact_level must be between 1 and 5")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Market.Scenario == "" {
		return fmt.Errorf("market.scenario is required")
	}
	if c.Market.PerturbationScale < 0 || c.Market.PerturbationScale > 1 {
		return fmt.Errorf("market.perturbation_scale must be between 0.0 and 1.0")
	}
	if c.Market.BlendWeight < 0 || c.Market.BlendWeight > 1 {
		return fmt.Errorf("market.blend_weight must be between 0.0 and 1.0")
	}

	return nil
}
