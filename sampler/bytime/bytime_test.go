package bytime

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/feedkit/exchange"
)

func trade(unix int64, price, amount string, side exchange.SideType) *exchange.TradeEvent {
	return &exchange.TradeEvent{
		Exchange: exchange.GeminiExchange,
		Base:     "BTC",
		Quote:    "USD",
		TradeID:  "1",
		Unix:     unix,
		Side:     side,
		Price:    decimal.RequireFromString(price),
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestNewByTime(t *testing.T) {
	ms := int64(1000)
	s := NewByTime(ms)
	assert.NotNil(t, s)
}

func TestTimestampMod(t *testing.T) {
	tt := []struct {
		t int64
		m int64
	}{
		{t: 1000, m: 100},
		{t: 1000, m: 1000},
		{t: 1000, m: 10000},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.t%tc.m, timestampMod(tc.t, tc.m))
	}
}

func TestToPrice(t *testing.T) {
	te := trade(1000, "1000", "1", exchange.SideTypeBuy)
	pp := toPrice(te)
	assert.Equal(t, te.Unix, pp.Timestamp)
	assert.Equal(t, te.Price, pp.Price)
}

func TestSample(t *testing.T) {
	s := NewByTime(1000)

	assert.Nil(t, s.Sample(trade(1100, "10", "1", exchange.SideTypeBuy)))
	assert.Nil(t, s.Sample(trade(1200, "12", "2", exchange.SideTypeSell)))
	assert.Nil(t, s.Sample(trade(1900, "9", "1", exchange.SideTypeBuy)))

	agg := s.Sample(trade(2000, "11", "1", exchange.SideTypeBuy))
	require.NotNil(t, agg)
	assert.Equal(t, int64(1000), agg.Timestamp)
	assert.Equal(t, "BTC", agg.Base)
	assert.Equal(t, uint64(2), agg.BuyCount)
	assert.Equal(t, uint64(1), agg.SellCount)
	assert.Equal(t, "10", agg.OpenPrice.Price.String())
	assert.Equal(t, "9", agg.ClosePrice.Price.String())
	assert.Equal(t, "12", agg.HighestPrice.Price.String())
	assert.Equal(t, "9", agg.LowestPrice.Price.String())
	assert.Equal(t, "2", agg.TotalBuySize.String())
	assert.Equal(t, "19", agg.TotalBuyQuote.String())
	assert.Equal(t, "24", agg.TotalSellQuote.String())

	// 高点在前，低点在后
	assert.False(t, agg.IsUp())
	assert.Equal(t, "-3", agg.Difference().String())
	assert.False(t, agg.Equal())

	pending := s.Flush()
	require.NotNil(t, pending)
	assert.Equal(t, int64(2000), pending.Timestamp)
	assert.True(t, pending.Equal())
	assert.Nil(t, s.Flush())
}
