package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sim struct {
		InitialCash          float64 `yaml:"initial_cash"`
		LotSize              int     `yaml:"lot_size"`
		StartDate            string  `yaml:"start_date"`
		EndDate              string  `yaml:"end_date"`
		DecideTimeoutSeconds int     `yaml:"decide_timeout_seconds"`
		StateDir             string  `yaml:"state_dir"`
		OutputDir            string  `yaml:"output_dir"`
		Benchmark            string  `yaml:"benchmark"`
		Resume               bool    `yaml:"resume"`
	} `yaml:"sim"`
	Fees struct {
		CommissionRate float64 `yaml:"commission_rate"`
		MinCommission  float64 `yaml:"min_commission"`
		StampTaxRate   float64 `yaml:"stamp_tax_rate"`
	} `yaml:"fees"`
	MarketData struct {
		Source   string `yaml:"source"` // "JSON" or "KITE"
		DataDir  string `yaml:"data_dir"`
		Exchange string `yaml:"exchange"`
	} `yaml:"market_data"`
	Universe []UniverseEntry `yaml:"universe"`
	Agents   []AgentConfig   `yaml:"agents"`
	LLM      struct {
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		System      string  `yaml:"system"`
		Schema      string  `yaml:"schema"`
	} `yaml:"llm"`
	Journal struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"journal"`
	News struct {
		Enabled        bool `yaml:"enabled"`
		MaxArticles    int  `yaml:"max_articles"`
		CacheMinutes   int  `yaml:"cache_minutes"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
	} `yaml:"news"`
}

type UniverseEntry struct {
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Industry string `yaml:"industry"`
	Token    int    `yaml:"token,omitempty"` // instrument token, KITE source only
}

// AgentConfig describes one registered decision-maker. The policy picks
// the decider implementation; LLM vendors are configuration, not types.
type AgentConfig struct {
	Name      string `yaml:"name"`
	Policy    string `yaml:"policy"` // "LLM", "RANDOM", "RULES" or "NOOP"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Seed      int64  `yaml:"seed"`
}

func (c *Config) Validate() error {
	if c.Sim.InitialCash <= 0 {
		return fmt.Errorf("sim.initial_cash must be positive, got %.2f", c.Sim.InitialCash)
	}
	if c.Sim.StartDate == "" || c.Sim.EndDate == "" {
		return errors.New("sim.start_date and sim.end_date are required")
	}
	if c.Sim.EndDate < c.Sim.StartDate {
		return fmt.Errorf("sim.end_date %s is before sim.start_date %s", c.Sim.EndDate, c.Sim.StartDate)
	}
	if c.MarketData.Source != "JSON" && c.MarketData.Source != "KITE" {
		return fmt.Errorf("market_data.source must be 'JSON' or 'KITE', got '%s'", c.MarketData.Source)
	}
	if len(c.Universe) == 0 {
		return errors.New("universe cannot be empty")
	}
	if len(c.Agents) == 0 {
		return errors.New("at least one agent must be configured")
	}
	for _, a := range c.Agents {
		switch a.Policy {
		case "LLM":
			if a.Model == "" || a.BaseURL == "" {
				return fmt.Errorf("agent %s: LLM policy requires model and base_url", a.Name)
			}
		case "RANDOM", "RULES", "NOOP":
		default:
			return fmt.Errorf("agent %s: unknown policy '%s'", a.Name, a.Policy)
		}
		if a.Name == "" {
			return errors.New("agent name cannot be empty")
		}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Sim.LotSize == 0 {
		c.Sim.LotSize = 100
	}
	if c.Sim.DecideTimeoutSeconds == 0 {
		c.Sim.DecideTimeoutSeconds = 120
	}
	if c.Sim.StateDir == "" {
		c.Sim.StateDir = "data/agent_data"
	}
	if c.Sim.OutputDir == "" {
		c.Sim.OutputDir = "docs/data"
	}
	if c.Fees.CommissionRate == 0 {
		c.Fees.CommissionRate = 0.0003
	}
	if c.Fees.MinCommission == 0 {
		c.Fees.MinCommission = 5
	}
	if c.Fees.StampTaxRate == 0 {
		c.Fees.StampTaxRate = 0.001
	}
	if c.MarketData.Source == "" {
		c.MarketData.Source = "JSON"
	}
	if c.MarketData.DataDir == "" {
		c.MarketData.DataDir = "data/daily_prices"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 512
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 60
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 30
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
