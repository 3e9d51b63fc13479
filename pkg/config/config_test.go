package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParse_OverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
portfolio:
  display_currency: EUR
  fx_pair: EURUSD
  aliases:
    XXBT: XBTUSD
cache:
  backend: layered
  max_size: 200
`))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "EUR", c.Portfolio.DisplayCurrency)
	assert.Equal(t, "EURUSD", c.Portfolio.FXPair)
	assert.Equal(t, map[string]string{"XXBT": "XBTUSD"}, c.Portfolio.Aliases)
	assert.Equal(t, 200, c.Cache.MaxSize)
	assert.Equal(t, "USD", c.Portfolio.QuoteCurrency, "untouched fields keep defaults")
	assert.Equal(t, 0.6, c.Portfolio.MatchCutoff)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"KRAKEN_API_KEY":    "k",
		"KRAKEN_API_SECRET": "s",
		"DISPLAY_CURRENCY":  "usd",
		"SINK_BACKEND":      "kafka",
		"KAFKA_BROKERS":     "a:9092,b:9092",
		"REDIS_ADDR":        "redis:6379",
	}
	c := Default()
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "k", c.Kraken.APIKey)
	assert.Equal(t, "s", c.Kraken.APISecret)
	assert.Equal(t, "USD", c.Portfolio.DisplayCurrency)
	assert.Equal(t, "kafka", c.Sink.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no environment", func(c *Config) { c.Environment = "" }, "environment"},
		{"bad currency", func(c *Config) { c.Portfolio.DisplayCurrency = "POUND" }, "display_currency"},
		{"cutoff out of range", func(c *Config) { c.Portfolio.MatchCutoff = 1.5 }, "match_cutoff"},
		{"missing fx pair", func(c *Config) { c.Portfolio.FXPair = "" }, "fx_pair"},
		{"half credentials", func(c *Config) { c.Kraken.APIKey = "k" }, "api_secret"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "disk" }, "cache.backend"},
		{"kafka without brokers", func(c *Config) { c.Sink.Backend = "kafka" }, "kafka.brokers"},
		{"clickhouse without host", func(c *Config) { c.Sink.Backend = "clickhouse" }, "clickhouse.host"},
		{"unknown sink", func(c *Config) { c.Sink.Backend = "s3" }, "sink.backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_SameCurrencyNeedsNoFXPair(t *testing.T) {
	c := Default()
	c.Portfolio.DisplayCurrency = "USD"
	c.Portfolio.FXPair = ""
	assert.NoError(t, c.Validate())
}
