// Package config loads adaptiq settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all adaptiq configuration.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Bandit    BanditConfig    `yaml:"bandit"`
	Store     StoreConfig     `yaml:"store"`
	QTable    QTableConfig    `yaml:"qtable"`
	Log       LogConfig       `yaml:"log"`
	Trace     TraceConfig     `yaml:"trace"`
}

// AgentConfig configures the Q-learning agent.
type AgentConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Discount     float64 `yaml:"discount"`
	Exploration  float64 `yaml:"exploration"`
	Actions      int     `yaml:"actions"`
	Projection   string  `yaml:"projection"` // modulo, slot
}

// KnowledgeConfig configures knowledge-state estimation.
type KnowledgeConfig struct {
	Window int `yaml:"window"`
}

// BanditConfig configures the content format bandit.
type BanditConfig struct {
	Epsilon float64 `yaml:"epsilon"`
}

// StoreConfig selects the SQL backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	DSN    string `yaml:"dsn"`
}

// QTableConfig selects where Q-values live.
type QTableConfig struct {
	Backend string      `yaml:"backend"` // memory, sql, redis
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the Redis Q-table.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // dev, production, quiet
}

type TraceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			LearningRate: 0.1,
			Discount:     0.9,
			Exploration:  0.1,
			Actions:      20,
			Projection:   "modulo",
		},
		Knowledge: KnowledgeConfig{Window: 50},
		Bandit:    BanditConfig{Epsilon: 0.1},
		Store:     StoreConfig{Driver: "sqlite"},
		QTable: QTableConfig{
			Backend: "sql",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "adaptiq",
			},
		},
		Log: LogConfig{Mode: "quiet"},
	}
}

// DefaultPath resolves the config file location:
// 1. ADAPTIQ_CONFIG environment variable
// 2. $XDG_CONFIG_HOME/adaptiq/config.yaml
// 3. ~/.config/adaptiq/config.yaml
func DefaultPath() (string, error) {
	if p := os.Getenv("ADAPTIQ_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "adaptiq", "config.yaml"), nil
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv overlays ADAPTIQ_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ADAPTIQ_DB"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("ADAPTIQ_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("ADAPTIQ_QTABLE_BACKEND"); v != "" {
		c.QTable.Backend = v
	}
	if v := os.Getenv("ADAPTIQ_REDIS_ADDR"); v != "" {
		c.QTable.Redis.Addr = v
	}
	if v := os.Getenv("ADAPTIQ_REDIS_PASSWORD"); v != "" {
		c.QTable.Redis.Password = v
	}
	if v := os.Getenv("ADAPTIQ_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("ADAPTIQ_EXPLORATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Agent.Exploration = f
		}
	}
	if v := os.Getenv("ADAPTIQ_TRACE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trace.Enabled = b
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if !inUnit(c.Agent.LearningRate) || c.Agent.LearningRate == 0 {
		errs = append(errs, fmt.Sprintf("agent.learning_rate must be in (0, 1], got %v", c.Agent.LearningRate))
	}
	if !inUnit(c.Agent.Discount) || c.Agent.Discount == 1 {
		errs = append(errs, fmt.Sprintf("agent.discount must be in [0, 1), got %v", c.Agent.Discount))
	}
	if !inUnit(c.Agent.Exploration) {
		errs = append(errs, fmt.Sprintf("agent.exploration must be in [0, 1], got %v", c.Agent.Exploration))
	}
	if c.Agent.Actions <= 0 {
		errs = append(errs, fmt.Sprintf("agent.actions must be positive, got %d", c.Agent.Actions))
	}
	switch c.Agent.Projection {
	case "modulo", "slot":
	default:
		errs = append(errs, fmt.Sprintf("agent.projection must be modulo or slot, got %q", c.Agent.Projection))
	}
	if !inUnit(c.Bandit.Epsilon) {
		errs = append(errs, fmt.Sprintf("bandit.epsilon must be in [0, 1], got %v", c.Bandit.Epsilon))
	}
	if c.Knowledge.Window <= 0 {
		errs = append(errs, fmt.Sprintf("knowledge.window must be positive, got %d", c.Knowledge.Window))
	}
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, "store.dsn is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	switch c.QTable.Backend {
	case "memory", "sql":
	case "redis":
		if c.QTable.Redis.Addr == "" {
			errs = append(errs, "qtable.redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("qtable.backend must be memory, sql or redis, got %q", c.QTable.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
