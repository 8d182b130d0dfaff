package dfgemini

import (
	"errors"
	"fmt"

	simplejson "github.com/bitly/go-simplejson"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/go-gotop/feedkit/exchange"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrDataEmpty = errors.New("gemini message is empty")
)

// subscriptionView 处理消息时订阅状态的只读副本
type subscriptionView struct {
	market        exchange.Market
	trades        bool
	level2Updates bool
	tickers       bool
}

// handleMessage 按 trades, level2Updates, tickers 的优先级只产出一类事件
func (d *df) handleMessage(view subscriptionView, message []byte) error {
	if len(message) == 0 {
		return ErrDataEmpty
	}
	j, err := simplejson.NewJson(message)
	if err != nil {
		return fmt.Errorf("parse gemini message: %w", err)
	}
	switch typ := j.Get("type").MustString(); typ {
	case messageTypeUpdate:
	case messageTypeHeartbeat:
		// 只用于刷新活跃时间
		return nil
	default:
		d.opts.logger.Debugf("gemini ignore message type %q", typ)
		return nil
	}

	var msg geminiUpdate
	if err := Json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("decode gemini update: %w", err)
	}

	switch {
	case view.trades:
		trades, err := toTradeEvents(&msg, view.market)
		if err != nil {
			return err
		}
		for _, t := range trades {
			d.handler.OnTrade(t, view.market)
		}
	case view.level2Updates:
		asks, bids, err := toLevel2Points(&msg)
		if err != nil {
			return err
		}
		if msg.SocketSequence == 0 {
			d.handler.OnLevel2Snapshot(&exchange.Level2SnapshotEvent{
				Exchange:   exchange.GeminiExchange,
				Base:       view.market.Base,
				Quote:      view.market.Quote,
				SequenceID: msg.SocketSequence,
				Asks:       asks,
				Bids:       bids,
			}, view.market)
			return nil
		}
		d.handler.OnLevel2Update(&exchange.Level2UpdateEvent{
			Exchange:    exchange.GeminiExchange,
			Base:        view.market.Base,
			Quote:       view.market.Quote,
			SequenceID:  msg.SocketSequence,
			TimestampMs: d.now().UnixMilli(),
			Asks:        asks,
			Bids:        bids,
		}, view.market)
	case view.tickers:
		delta, err := toTickerDelta(&msg)
		if err != nil {
			return err
		}
		d.handler.OnTicker(d.applyTicker(view.market, delta), view.market)
	}
	return nil
}

func toTradeEvents(msg *geminiUpdate, market exchange.Market) ([]*exchange.TradeEvent, error) {
	trades := make([]*exchange.TradeEvent, 0, len(msg.Events))
	for _, e := range msg.Events {
		if e.Type != eventTypeTrade || (e.MakerSide != sideAsk && e.MakerSide != sideBid) {
			continue
		}
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return nil, fmt.Errorf("trade %s price: %w", e.TID, err)
		}
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("trade %s amount: %w", e.TID, err)
		}
		side := exchange.SideTypeBuy
		if e.MakerSide == sideAsk {
			side = exchange.SideTypeSell
		}
		trades = append(trades, &exchange.TradeEvent{
			Exchange: exchange.GeminiExchange,
			Base:     market.Base,
			Quote:    market.Quote,
			TradeID:  e.TID.String(),
			Unix:     msg.TimestampMs,
			Side:     side,
			Price:    price,
			Amount:   amount,
		})
	}
	return trades, nil
}

func toLevel2Points(msg *geminiUpdate) (asks, bids []exchange.Level2Point, err error) {
	asks = []exchange.Level2Point{}
	bids = []exchange.Level2Point{}
	for _, e := range msg.Events {
		if e.Type != eventTypeChange {
			continue
		}
		point, err := toLevel2Point(e)
		if err != nil {
			return nil, nil, err
		}
		switch e.Side {
		case sideAsk:
			asks = append(asks, point)
		case sideBid:
			bids = append(bids, point)
		}
	}
	return asks, bids, nil
}

func toLevel2Point(e geminiEvent) (exchange.Level2Point, error) {
	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return exchange.Level2Point{}, fmt.Errorf("change price: %w", err)
	}
	size, err := decimal.NewFromString(e.Remaining)
	if err != nil {
		return exchange.Level2Point{}, fmt.Errorf("change remaining: %w", err)
	}
	return exchange.Level2Point{
		Price: price,
		Size:  size,
		Meta: exchange.Level2Meta{
			Reason: e.Reason,
			Delta:  e.Delta,
		},
	}, nil
}

// toTickerDelta 每种变更只取消息中的第一条，全部解析成功后才会写入缓存
func toTickerDelta(msg *geminiUpdate) (tickerDelta, error) {
	delta := tickerDelta{timestamp: msg.TimestampMs}
	for _, e := range msg.Events {
		var target **decimal.Decimal
		switch {
		case e.Type == eventTypeChange && e.Side == sideAsk:
			target = &delta.ask
		case e.Type == eventTypeChange && e.Side == sideBid:
			target = &delta.bid
		case e.Type == eventTypeTrade:
			target = &delta.last
		default:
			continue
		}
		if *target != nil {
			continue
		}
		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			return tickerDelta{}, fmt.Errorf("ticker %s price: %w", e.Type, err)
		}
		*target = &price
	}
	return delta, nil
}
