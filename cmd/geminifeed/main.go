package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/feedkit/broker"
	"github.com/go-gotop/feedkit/broker/kafka"
	center "github.com/go-gotop/feedkit/cust/log"
	"github.com/go-gotop/feedkit/dfmanager"
	"github.com/go-gotop/feedkit/dfmanager/dfgemini"
	"github.com/go-gotop/feedkit/exchange"
	"github.com/go-gotop/feedkit/limiter/ratelimit"
	"github.com/go-gotop/feedkit/metrics"
	"github.com/go-gotop/feedkit/sampler"
	"github.com/go-gotop/feedkit/sampler/bytime"
	"github.com/go-gotop/feedkit/wsmanager/manager"
)

func main() {
	cfg, err := LoadFromEnv()
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	logger := log.NewHelper(center.NewLogger(&center.Config{
		Env:         cfg.LogEnv,
		Service:     cfg.Service,
		Level:       cfg.LogLevel,
		RedisAddr:   cfg.RedisAddr,
		RedisPasswd: cfg.RedisPasswd,
		RedisDB:     cfg.RedisDB,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorf("geminifeed exited: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *Config, logger *log.Helper) error {
	bars := newBarSampler(cfg.SampleMs, logger)
	handler := &dfmanager.FeedHandler{
		ErrorHandler: func(err error, key string) {
			logger.Warnf("channel %s error: %v", key, err)
		},
		ReconnectingHandler: func(key string) {
			logger.Infof("channel %s reconnecting", key)
		},
		TradeEvent: func(evt *exchange.TradeEvent, market exchange.Market) {
			bars.sample(evt, market)
		},
	}

	// 关闭阶段 feed.Close 还会产生状态消息，sink 不能使用已取消的信号 ctx
	sinkCtx, cancelSink := context.WithCancel(context.Background())
	defer cancelSink()

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(
			kafka.WithAddress(cfg.KafkaBrokers...),
			kafka.WithLogger(logger),
			kafka.WithTopicPrefix(cfg.KafkaTopicPrefix),
		)
		handler = broker.NewFeedHandler(sinkCtx, producer, exchange.GeminiExchange, logger, handler)
	}

	m := metrics.New(exchange.GeminiExchange)
	handler = m.Wrap(handler)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("metrics server listening on %s", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server failed: %v", err)
		}
	}()

	wsm := manager.NewManager(
		manager.WithLogger(logger),
		manager.WithMaxConn(cfg.MaxConn),
		manager.WithConnLimiter(ratelimit.NewRateLimiter(time.Second, cfg.ConnPerSec)),
	)
	feed := dfgemini.NewGeminiDataFeed(handler,
		dfgemini.WithLogger(logger),
		dfgemini.WithWsEndpoint(cfg.Endpoint),
		dfgemini.WithWatchdogInterval(cfg.WatchdogInterval),
		dfgemini.WithWebsocketManager(wsm),
	)

	var subErr error
	for _, market := range cfg.Markets {
		for _, mode := range cfg.Modes {
			if err := subscribe(feed, market, mode); err != nil {
				subErr = errors.Join(subErr, err)
				logger.Errorf("subscribe %s %s error: %v", market.ID, mode, err)
			}
		}
	}
	if subErr != nil && len(feed.Streams()) == 0 {
		feed.Close()
		shutdownServer(srv, logger)
		return subErr
	}
	logger.Infof("geminifeed running with %d channels", len(feed.Streams()))

	<-ctx.Done()
	logger.Info("shutting down")

	feed.Close()
	if err := wsm.Shutdown(); err != nil {
		logger.Errorf("websocket manager shutdown error: %v", err)
	}
	bars.flush()
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Errorf("kafka producer close error: %v", err)
		}
	}
	cancelSink()
	shutdownServer(srv, logger)
	return nil
}

func subscribe(feed dfmanager.MarketDataFeed, market exchange.Market, mode string) error {
	switch mode {
	case modeTrades:
		return feed.SubscribeTrades(market)
	case modeLevel2:
		return feed.SubscribeLevel2Updates(market)
	case modeTicker:
		return feed.SubscribeTicker(market)
	}
	return nil
}

func shutdownServer(srv *http.Server, logger *log.Helper) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("metrics server shutdown error: %v", err)
	}
}

// barSampler 每个交易对一个按时间采样的成交汇总
type barSampler struct {
	ms       int64
	logger   *log.Helper
	mux      sync.Mutex
	samplers map[string]sampler.Sampler
}

func newBarSampler(ms int64, logger *log.Helper) *barSampler {
	return &barSampler{
		ms:       ms,
		logger:   logger,
		samplers: make(map[string]sampler.Sampler),
	}
}

func (b *barSampler) sample(evt *exchange.TradeEvent, market exchange.Market) {
	b.mux.Lock()
	s, ok := b.samplers[market.ID]
	if !ok {
		s = bytime.NewByTime(b.ms)
		b.samplers[market.ID] = s
	}
	agg := s.Sample(evt)
	b.mux.Unlock()

	if agg != nil {
		b.log(market.ID, agg)
	}
}

func (b *barSampler) flush() {
	b.mux.Lock()
	defer b.mux.Unlock()
	for id, s := range b.samplers {
		if agg := s.Flush(); agg != nil {
			b.log(id, agg)
		}
	}
}

func (b *barSampler) log(id string, agg *sampler.AggregatedTrade) {
	b.logger.Infof("bar %s ts=%d open=%s high=%s low=%s close=%s buys=%d sells=%d",
		id, agg.Timestamp,
		agg.OpenPrice.Price, agg.HighestPrice.Price, agg.LowestPrice.Price, agg.ClosePrice.Price,
		agg.BuyCount, agg.SellCount)
}
