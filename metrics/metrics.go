// Package metrics 统计行情 feed 的连接信号与事件数量
//
//	feed_signals_total{exchange,channel,signal}
//	feed_events_total{exchange,market,type}
//	feed_errors_total{exchange,channel}
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-gotop/feedkit/dfmanager"
	"github.com/go-gotop/feedkit/exchange"
)

const namespace = "feed"

type Metrics struct {
	exchange string
	registry *prometheus.Registry
	signals  *prometheus.CounterVec
	events   *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

func New(exchangeName string) *Metrics {
	m := &Metrics{
		exchange: exchangeName,
		registry: prometheus.NewRegistry(),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Number of connection lifecycle signals per channel",
		}, []string{"exchange", "channel", "signal"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of normalized market events emitted",
		}, []string{"exchange", "market", "type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of error signals per channel",
		}, []string{"exchange", "channel"}),
	}
	m.registry.MustRegister(
		m.signals,
		m.events,
		m.errors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) signal(name string, next func(key string)) func(key string) {
	return func(key string) {
		m.signals.WithLabelValues(m.exchange, key, name).Inc()
		if next != nil {
			next(key)
		}
	}
}

func (m *Metrics) event(market exchange.Market, typ string) {
	m.events.WithLabelValues(m.exchange, market.ID, typ).Inc()
}

// Wrap 计数后再调用 next 的回调
func (m *Metrics) Wrap(next *dfmanager.FeedHandler) *dfmanager.FeedHandler {
	if next == nil {
		next = &dfmanager.FeedHandler{}
	}
	return &dfmanager.FeedHandler{
		ErrorHandler: func(err error, key string) {
			m.errors.WithLabelValues(m.exchange, key).Inc()
			next.OnError(err, key)
		},
		ConnectingHandler:   m.signal("connecting", next.ConnectingHandler),
		ConnectedHandler:    m.signal("connected", next.ConnectedHandler),
		DisconnectedHandler: m.signal("disconnected", next.DisconnectedHandler),
		ClosingHandler:      m.signal("closing", next.ClosingHandler),
		ClosedHandler:       m.signal("closed", next.ClosedHandler),
		ReconnectingHandler: m.signal("reconnecting", next.ReconnectingHandler),
		TradeEvent: func(evt *exchange.TradeEvent, market exchange.Market) {
			m.event(market, "trade")
			next.OnTrade(evt, market)
		},
		Level2SnapshotEvent: func(evt *exchange.Level2SnapshotEvent, market exchange.Market) {
			m.event(market, "l2snapshot")
			next.OnLevel2Snapshot(evt, market)
		},
		Level2UpdateEvent: func(evt *exchange.Level2UpdateEvent, market exchange.Market) {
			m.event(market, "l2update")
			next.OnLevel2Update(evt, market)
		},
		TickerEvent: func(evt *exchange.TickerEvent, market exchange.Market) {
			m.event(market, "ticker")
			next.OnTicker(evt, market)
		},
	}
}
