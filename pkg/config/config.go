package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Cache struct {
		Dir           string `yaml:"dir"`
		MemoryMaxSize int    `yaml:"memory_max_size"`
		// Tier selects the persistent layer behind the in-memory tier:
		// "disk" (default) or "redis" for deployments with a shared cache.
		Tier  string `yaml:"tier"`
		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Providers struct {
		Timeout time.Duration `yaml:"timeout"`
		Candles struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"candles"`
		Indicator struct {
			BaseURL     string        `yaml:"base_url"`
			APIKey      string        `yaml:"api_key"`
			Interval    string        `yaml:"interval"`
			Period      int           `yaml:"period"`
			MinInterval time.Duration `yaml:"min_interval"`
		} `yaml:"indicator"`
		Sentiment struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"sentiment"`
		Funding struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"funding"`
		Macro struct {
			BaseURL     string `yaml:"base_url"`
			APIKey      string `yaml:"api_key"`
			SeriesA     string `yaml:"series_a"`
			SeriesB     string `yaml:"series_b"`
			DailyBudget int    `yaml:"daily_budget"`
		} `yaml:"macro"`
		History struct {
			BaseURL  string `yaml:"base_url"`
			Currency string `yaml:"currency"`
			PageDays int    `yaml:"page_days"`
		} `yaml:"history"`
	} `yaml:"providers"`
	Assets []AssetConfig `yaml:"assets"`
}

// AssetConfig is the externally supplied calibration for one asset.
type AssetConfig struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Origin            string  `yaml:"origin"` // YYYY-MM-DD, regression origin date
	LowBound          float64 `yaml:"low_bound"`
	HighBound         float64 `yaml:"high_bound"`
	StaticConfidence  int     `yaml:"static_confidence"`
	ExchangeSymbol    string  `yaml:"exchange_symbol"` // empty: no candle-provider listing
	IndicatorSymbol   string  `yaml:"indicator_symbol"`
	IndicatorExchange string  `yaml:"indicator_exchange"`
	HistoryID         string  `yaml:"history_id"`    // alternate-provider asset identifier
	BaselineFile      string  `yaml:"baseline_file"` // optional embedded baseline series
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("INDICATOR_API_KEY"); v != "" {
		c.Providers.Indicator.APIKey = v
	}
	if v := os.Getenv("MACRO_API_KEY"); v != "" {
		c.Providers.Macro.APIKey = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("CACHE_TIER"); v != "" {
		c.Cache.Tier = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if c.Cache.Tier != "" && c.Cache.Tier != "disk" && c.Cache.Tier != "redis" {
		return fmt.Errorf("cache.tier must be 'disk' or 'redis', got '%s'", c.Cache.Tier)
	}
	if len(c.Assets) == 0 {
		return fmt.Errorf("assets cannot be empty")
	}
	seen := make(map[string]bool, len(c.Assets))
	for i := range c.Assets {
		a := &c.Assets[i]
		if a.ID == "" {
			return fmt.Errorf("assets[%d].id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate asset id '%s'", a.ID)
		}
		seen[a.ID] = true
		if a.Origin == "" {
			return fmt.Errorf("asset %s: origin is required", a.ID)
		}
		if _, err := time.Parse("2006-01-02", a.Origin); err != nil {
			return fmt.Errorf("asset %s: origin must be YYYY-MM-DD: %w", a.ID, err)
		}
		if a.HighBound <= a.LowBound {
			return fmt.Errorf("asset %s: high_bound must exceed low_bound", a.ID)
		}
		if a.StaticConfidence < 1 || a.StaticConfidence > 9 {
			return fmt.Errorf("asset %s: static_confidence must be in [1,9]", a.ID)
		}
		if a.ExchangeSymbol == "" && a.HistoryID == "" {
			return fmt.Errorf("asset %s: needs exchange_symbol or history_id", a.ID)
		}
	}
	return nil
}

// Asset returns the calibration for one asset, or nil when unknown.
func (c *Config) Asset(id string) *AssetConfig {
	for i := range c.Assets {
		if c.Assets[i].ID == id {
			return &c.Assets[i]
		}
	}
	return nil
}

// OriginDate parses the asset's regression origin date.
func (a *AssetConfig) OriginDate() time.Time {
	t, _ := time.Parse("2006-01-02", a.Origin)
	return t
}
