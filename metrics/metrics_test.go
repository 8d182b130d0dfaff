package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/go-gotop/feedkit/dfmanager"
	"github.com/go-gotop/feedkit/exchange"
)

func TestWrapCounts(t *testing.T) {
	m := New(exchange.GeminiExchange)
	var reconnects int
	h := m.Wrap(&dfmanager.FeedHandler{
		ReconnectingHandler: func(key string) { reconnects++ },
	})
	market := exchange.Market{ID: "btcusd"}

	h.OnReconnecting("btcusd")
	h.OnReconnecting("btcusd")
	h.OnError(errors.New("x"), "btcusd")
	h.OnTrade(&exchange.TradeEvent{}, market)
	h.OnTicker(&exchange.TickerEvent{}, market)

	assert.Equal(t, 2, reconnects)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.signals.WithLabelValues(exchange.GeminiExchange, "btcusd", "reconnecting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(exchange.GeminiExchange, "btcusd")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(exchange.GeminiExchange, "btcusd", "trade")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(exchange.GeminiExchange, "btcusd", "ticker")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New(exchange.GeminiExchange)
	m.Wrap(nil).OnConnected("btcusd-tob")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(body, `feed_signals_total{channel="btcusd-tob",exchange="GEMINI",signal="connected"} 1`))
}
