package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/go-gotop/feedkit/exchange"
)

const (
	modeTrades = "trades"
	modeLevel2 = "level2"
	modeTicker = "ticker"
)

// Config 通过环境变量加载
type Config struct {
	Endpoint    string   `env:"FEED_ENDPOINT" envDefault:"wss://api.gemini.com/v1/marketdata"`
	Symbols     []string `env:"FEED_SYMBOLS" envSeparator:"," envDefault:"BTC/USD,ETH/USD"`
	Modes       []string `env:"FEED_MODES" envSeparator:"," envDefault:"trades,ticker"`
	WatchdogSec int      `env:"FEED_WATCHDOG_SEC" envDefault:"30"`
	MaxConn     int      `env:"FEED_MAX_CONN" envDefault:"100"`
	ConnPerSec  int      `env:"FEED_CONN_PER_SEC" envDefault:"5"`
	SampleMs    int64    `env:"FEED_SAMPLE_MS" envDefault:"60000"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9091"`

	LogEnv      string `env:"LOG_ENV" envDefault:"DEV"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"INFO"`
	Service     string `env:"SERVICE_NAME" envDefault:"geminifeed"`
	RedisAddr   string `env:"REDIS_ADDR"`
	RedisPasswd string `env:"REDIS_PASSWORD"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`

	// 由环境变量计算得到
	WatchdogInterval time.Duration     `env:"-"`
	Markets          []exchange.Market `env:"-"`
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	for i := range cfg.Modes {
		cfg.Modes[i] = strings.ToLower(strings.TrimSpace(cfg.Modes[i]))
	}
	cfg.WatchdogInterval = time.Duration(cfg.WatchdogSec) * time.Second
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	cfg.Markets = cfg.Markets[:0]
	for _, s := range cfg.Symbols {
		m, err := parseMarket(s)
		if err != nil {
			return nil, err
		}
		cfg.Markets = append(cfg.Markets, m)
	}
	return cfg, nil
}

// parseMarket 解析 BASE/QUOTE 形式的交易对
func parseMarket(s string) (exchange.Market, error) {
	base, quote, ok := strings.Cut(strings.TrimSpace(s), "/")
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if !ok || base == "" || quote == "" {
		return exchange.Market{}, fmt.Errorf("invalid symbol %q, expected BASE/QUOTE", s)
	}
	return exchange.Market{
		ID:    strings.ToLower(base + quote),
		Base:  base,
		Quote: quote,
		Type:  exchange.MarketTypeSpot,
	}, nil
}

func (c *Config) Validate() error {
	if len(c.Markets) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	if len(c.Modes) == 0 {
		return fmt.Errorf("at least one mode must be configured")
	}
	for _, m := range c.Modes {
		switch m {
		case modeTrades, modeLevel2, modeTicker:
		default:
			return fmt.Errorf("invalid mode: %s", m)
		}
	}
	if !strings.HasPrefix(c.Endpoint, "ws://") && !strings.HasPrefix(c.Endpoint, "wss://") {
		return fmt.Errorf("endpoint must be a websocket url: %s", c.Endpoint)
	}
	if c.WatchdogInterval < time.Second {
		return fmt.Errorf("watchdog interval must be at least 1 second")
	}
	if c.MaxConn < 1 {
		return fmt.Errorf("max connections must be positive")
	}
	validLogLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARN": true, "ERROR": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}
