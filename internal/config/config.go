package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Network   string `yaml:"network"`
	DataFile  string `yaml:"data_file"`
	FaucetURL string `yaml:"faucet_url"`

	Price struct {
		APIBaseURL         string  `yaml:"api_base_url"`
		CacheTTLSeconds    int     `yaml:"cache_ttl_seconds"`
		MinIntervalSeconds int     `yaml:"min_interval_seconds"`
		FallbackUSD        float64 `yaml:"fallback_usd"`
	} `yaml:"price"`

	Monitor struct {
		IntervalSeconds int `yaml:"interval_seconds"`
	} `yaml:"monitor"`

	Session struct {
		TTLHours int `yaml:"ttl_hours"`
	} `yaml:"session"`

	Telegram struct {
		PollTimeoutSeconds int `yaml:"poll_timeout_seconds"`
	} `yaml:"telegram"`

	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

func (c *Config) Validate() error {
	if c.DataFile == "" {
		return errors.New("data_file cannot be empty")
	}
	if c.Price.CacheTTLSeconds <= 0 {
		return fmt.Errorf("price.cache_ttl_seconds must be positive, got %d", c.Price.CacheTTLSeconds)
	}
	if c.Price.MinIntervalSeconds <= 0 {
		return fmt.Errorf("price.min_interval_seconds must be positive, got %d", c.Price.MinIntervalSeconds)
	}
	if c.Price.FallbackUSD <= 0 {
		return fmt.Errorf("price.fallback_usd must be positive, got %.2f", c.Price.FallbackUSD)
	}
	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("monitor.interval_seconds must be positive, got %d", c.Monitor.IntervalSeconds)
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
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = "sepolia"
	}
	if c.DataFile == "" {
		c.DataFile = "user_data.json"
	}
	if c.FaucetURL == "" {
		c.FaucetURL = "https://sepoliafaucet.com/"
	}
	if c.Price.APIBaseURL == "" {
		c.Price.APIBaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Price.CacheTTLSeconds == 0 {
		c.Price.CacheTTLSeconds = 60
	}
	if c.Price.MinIntervalSeconds == 0 {
		c.Price.MinIntervalSeconds = 10
	}
	if c.Price.FallbackUSD == 0 {
		c.Price.FallbackUSD = 2000
	}
	if c.Monitor.IntervalSeconds == 0 {
		c.Monitor.IntervalSeconds = 60
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 24
	}
	if c.Telegram.PollTimeoutSeconds == 0 {
		c.Telegram.PollTimeoutSeconds = 30
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
}
