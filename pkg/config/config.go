package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
		SlowRequest     time.Duration `yaml:"slow_request"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// Aggregated warn/error lines are published here when the Kafka sink is on.
		CollectorTopic    string        `yaml:"collector_topic"`
		CollectorInterval time.Duration `yaml:"collector_interval"`
	} `yaml:"log"`
	Kraken struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		APISecret   string        `yaml:"api_secret"`
		Timeout     time.Duration `yaml:"timeout"`
		Concurrency int           `yaml:"concurrency"`
		RateLimit   struct {
			Public  RateLimit `yaml:"public"`
			Private RateLimit `yaml:"private"`
		} `yaml:"rate_limit"`
	} `yaml:"kraken"`
	Portfolio struct {
		DisplayCurrency   string            `yaml:"display_currency"`
		QuoteCurrency     string            `yaml:"quote_currency"`
		FiatCurrencies    []string          `yaml:"fiat_currencies"`
		FXPair            string            `yaml:"fx_pair"`
		FXInvert          bool              `yaml:"fx_invert"`
		MatchCutoff       float64           `yaml:"match_cutoff"`
		CandleExclusions  []string          `yaml:"candle_exclusions"`
		Aliases           map[string]string `yaml:"aliases"`
		TradeBalanceAsset string            `yaml:"trade_balance_asset"`
	} `yaml:"portfolio"`
	Cache struct {
		Backend string `yaml:"backend"`
		MaxSize int    `yaml:"max_size"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Sink struct {
		Backend string `yaml:"backend"`
		// Timeout bounds one snapshot write.
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"sink"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// RateLimit is one token bucket.
type RateLimit struct {
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

// Default returns a configuration that runs locally against the public
// exchange API with an in-memory cache and no snapshot sink.
func Default() *Config {
	var c Config
	c.Environment = "development"
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.CORS = true
	c.Server.SlowRequest = 2 * time.Second
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"
	c.Log.CollectorTopic = "foliopull.logs"
	c.Log.CollectorInterval = 30 * time.Second
	c.Kraken.BaseURL = "https://api.kraken.com"
	c.Kraken.Timeout = 15 * time.Second
	c.Kraken.Concurrency = 4
	c.Kraken.RateLimit.Public = RateLimit{Capacity: 10, RefillPerSec: 1}
	c.Kraken.RateLimit.Private = RateLimit{Capacity: 15, RefillPerSec: 0.33}
	c.Portfolio.DisplayCurrency = "GBP"
	c.Portfolio.QuoteCurrency = "USD"
	c.Portfolio.FiatCurrencies = []string{"GBP", "USD", "EUR"}
	c.Portfolio.FXPair = "GBPUSD"
	c.Portfolio.FXInvert = true
	c.Portfolio.MatchCutoff = 0.6
	c.Portfolio.CandleExclusions = []string{"USDTUSD", "ZGBPZUSD"}
	c.Portfolio.TradeBalanceAsset = "ZUSD"
	c.Cache.Backend = "memory"
	c.Cache.MaxSize = 1000
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "foliopull"
	c.Sink.Backend = "none"
	c.Sink.Timeout = 5 * time.Second
	c.Kafka.Topic = "foliopull.valuations"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "foliopull"
	return &c
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// An empty path starts from the defaults.
func LoadWithEnv(path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = Load(path); err != nil {
			return nil, err
		}
	}

	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment lookup function.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("KRAKEN_API_KEY"); v != "" {
		c.Kraken.APIKey = v
	}
	if v := getenv("KRAKEN_API_SECRET"); v != "" {
		c.Kraken.APISecret = v
	}
	if v := getenv("DISPLAY_CURRENCY"); v != "" {
		c.Portfolio.DisplayCurrency = strings.ToUpper(v)
	}
	if v := getenv("SINK_BACKEND"); v != "" {
		c.Sink.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	if len(c.Portfolio.DisplayCurrency) != 3 {
		return fmt.Errorf("portfolio.display_currency must be a 3-letter code, got %q", c.Portfolio.DisplayCurrency)
	}
	if c.Portfolio.QuoteCurrency == "" {
		return fmt.Errorf("portfolio.quote_currency is required")
	}
	if c.Portfolio.MatchCutoff <= 0 || c.Portfolio.MatchCutoff > 1 {
		return fmt.Errorf("portfolio.match_cutoff must be in (0, 1], got %v", c.Portfolio.MatchCutoff)
	}
	if c.Portfolio.DisplayCurrency != c.Portfolio.QuoteCurrency && c.Portfolio.FXPair == "" {
		return fmt.Errorf("portfolio.fx_pair is required when display and quote currencies differ")
	}
	if (c.Kraken.APIKey == "") != (c.Kraken.APISecret == "") {
		return fmt.Errorf("kraken.api_key and kraken.api_secret must be set together")
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis", "layered":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for backend %q", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}

	switch c.Sink.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when sink.backend is kafka")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when sink.backend is kafka")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when sink.backend is clickhouse")
		}
	default:
		return fmt.Errorf("sink.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Sink.Backend)
	}
	return nil
}
