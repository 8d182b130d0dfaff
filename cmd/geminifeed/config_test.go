package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/feedkit/exchange"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "wss://api.gemini.com/v1/marketdata", cfg.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.WatchdogInterval)
	assert.Equal(t, []string{modeTrades, modeTicker}, cfg.Modes)
	require.Len(t, cfg.Markets, 2)
	assert.Equal(t, exchange.Market{ID: "btcusd", Base: "BTC", Quote: "USD", Type: exchange.MarketTypeSpot}, cfg.Markets[0])
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FEED_SYMBOLS", " eth/btc , SOL/USD")
	t.Setenv("FEED_MODES", "Level2, ticker")
	t.Setenv("FEED_WATCHDOG_SEC", "10")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "ethbtc", cfg.Markets[0].ID)
	assert.Equal(t, "SOL", cfg.Markets[1].Base)
	assert.Equal(t, []string{modeLevel2, modeTicker}, cfg.Modes)
	assert.Equal(t, 10*time.Second, cfg.WatchdogInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadFromEnvBadSymbol(t *testing.T) {
	t.Setenv("FEED_SYMBOLS", "BTCUSD")
	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tt := []struct {
		name string
		env  map[string]string
	}{
		{name: "mode", env: map[string]string{"FEED_MODES": "candles"}},
		{name: "endpoint", env: map[string]string{"FEED_ENDPOINT": "https://api.gemini.com"}},
		{name: "watchdog", env: map[string]string{"FEED_WATCHDOG_SEC": "0"}},
		{name: "max conn", env: map[string]string{"FEED_MAX_CONN": "0"}},
		{name: "log level", env: map[string]string{"LOG_LEVEL": "trace"}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadFromEnv()
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}
