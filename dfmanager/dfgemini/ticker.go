package dfgemini

import (
	"github.com/shopspring/decimal"

	"github.com/go-gotop/feedkit/exchange"
)

// tickerState 按字段增量合并的行情快照，未收到的新值保留旧值
type tickerState struct {
	ask       decimal.NullDecimal
	bid       decimal.NullDecimal
	last      decimal.NullDecimal
	timestamp int64
}

// tickerDelta 单条消息中携带的变更
type tickerDelta struct {
	ask       *decimal.Decimal
	bid       *decimal.Decimal
	last      *decimal.Decimal
	timestamp int64
}

func (t *tickerState) apply(delta tickerDelta) {
	if delta.ask != nil {
		t.ask = decimal.NullDecimal{Decimal: *delta.ask, Valid: true}
	}
	if delta.bid != nil {
		t.bid = decimal.NullDecimal{Decimal: *delta.bid, Valid: true}
	}
	if delta.last != nil {
		t.last = decimal.NullDecimal{Decimal: *delta.last, Valid: true}
	}
	t.timestamp = delta.timestamp
}

func (t *tickerState) event(market exchange.Market) *exchange.TickerEvent {
	return &exchange.TickerEvent{
		Exchange:  exchange.GeminiExchange,
		Base:      market.Base,
		Quote:     market.Quote,
		Ask:       t.ask,
		Bid:       t.bid,
		Last:      t.last,
		Timestamp: t.timestamp,
	}
}

// applyTicker 合并变更并返回合并后的快照
func (d *df) applyTicker(market exchange.Market, delta tickerDelta) *exchange.TickerEvent {
	d.mux.Lock()
	defer d.mux.Unlock()

	t, ok := d.tickers[market.ID]
	if !ok {
		t = &tickerState{}
		d.tickers[market.ID] = t
	}
	t.apply(delta)
	return t.event(market)
}
