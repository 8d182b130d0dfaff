package exchange

import (
	"github.com/shopspring/decimal"
)

type TradeEvent struct {
	// Exchange 交易所
	Exchange string
	// Base 基础资产
	Base string
	// Quote 计价资产
	Quote string
	// TradeID 交易所成交ID，原样保留
	TradeID string
	// Unix 成交时间(毫秒)
	Unix int64
	// Side buy, sell (taker 方向)
	Side SideType
	// Price 成交价格
	Price decimal.Decimal
	// Amount 成交数量
	Amount decimal.Decimal
}

type Level2SnapshotEvent struct {
	Exchange   string
	Base       string
	Quote      string
	SequenceID int64
	Asks       []Level2Point
	Bids       []Level2Point
}

type Level2UpdateEvent struct {
	Exchange   string
	Base       string
	Quote      string
	SequenceID int64
	// TimestampMs 本地接收时间(毫秒)
	TimestampMs int64
	Asks        []Level2Point
	Bids        []Level2Point
}

type TickerEvent struct {
	Exchange string
	Base     string
	Quote    string
	// Ask 最优卖价，尚未收到时 Valid 为 false
	Ask decimal.NullDecimal
	// Bid 最优买价
	Bid decimal.NullDecimal
	// Last 最新成交价
	Last decimal.NullDecimal
	// Timestamp 交易所消息时间(毫秒)
	Timestamp int64
}
