package kraken

import "time"

// Config is everything the client needs. It is passed in explicitly and never
// read from the environment here.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`

	// Token buckets per endpoint class.
	PublicLimit  RateLimit `yaml:"public_limit"`
	PrivateLimit RateLimit `yaml:"private_limit"`
}

// RateLimit is a token bucket: Capacity tokens refilled at RefillPerSec.
type RateLimit struct {
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

const DefaultBaseURL = "https://api.kraken.com"

// DefaultConfig matches the exchange's starter-tier call budget.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Timeout:      15 * time.Second,
		UserAgent:    "foliopull/1.0",
		PublicLimit:  RateLimit{Capacity: 10, RefillPerSec: 1},
		PrivateLimit: RateLimit{Capacity: 15, RefillPerSec: 0.33},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.PublicLimit.Capacity <= 0 {
		c.PublicLimit = d.PublicLimit
	}
	if c.PrivateLimit.Capacity <= 0 {
		c.PrivateLimit = d.PrivateLimit
	}
	return c
}

// HasCredentials reports whether private endpoints can be called.
func (c Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}
