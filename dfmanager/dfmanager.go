package dfmanager

import (
	"time"

	"github.com/go-gotop/feedkit/exchange"
)

// FeedHandler 行情推送的回调集合，未设置的回调直接跳过
type FeedHandler struct {
	ErrorHandler func(err error, key string)

	// 连接生命周期回调，参数为频道 key
	ConnectingHandler   func(key string)
	ConnectedHandler    func(key string)
	DisconnectedHandler func(key string)
	ClosingHandler      func(key string)
	ClosedHandler       func(key string)
	ReconnectingHandler func(key string)

	TradeEvent          func(evt *exchange.TradeEvent, market exchange.Market)
	Level2SnapshotEvent func(evt *exchange.Level2SnapshotEvent, market exchange.Market)
	Level2UpdateEvent   func(evt *exchange.Level2UpdateEvent, market exchange.Market)
	TickerEvent         func(evt *exchange.TickerEvent, market exchange.Market)
}

func (h *FeedHandler) OnError(err error, key string) {
	if h != nil && h.ErrorHandler != nil {
		h.ErrorHandler(err, key)
	}
}

func (h *FeedHandler) OnConnecting(key string) {
	if h != nil && h.ConnectingHandler != nil {
		h.ConnectingHandler(key)
	}
}

func (h *FeedHandler) OnConnected(key string) {
	if h != nil && h.ConnectedHandler != nil {
		h.ConnectedHandler(key)
	}
}

func (h *FeedHandler) OnDisconnected(key string) {
	if h != nil && h.DisconnectedHandler != nil {
		h.DisconnectedHandler(key)
	}
}

func (h *FeedHandler) OnClosing(key string) {
	if h != nil && h.ClosingHandler != nil {
		h.ClosingHandler(key)
	}
}

func (h *FeedHandler) OnClosed(key string) {
	if h != nil && h.ClosedHandler != nil {
		h.ClosedHandler(key)
	}
}

func (h *FeedHandler) OnReconnecting(key string) {
	if h != nil && h.ReconnectingHandler != nil {
		h.ReconnectingHandler(key)
	}
}

func (h *FeedHandler) OnTrade(evt *exchange.TradeEvent, market exchange.Market) {
	if h != nil && h.TradeEvent != nil {
		h.TradeEvent(evt, market)
	}
}

func (h *FeedHandler) OnLevel2Snapshot(evt *exchange.Level2SnapshotEvent, market exchange.Market) {
	if h != nil && h.Level2SnapshotEvent != nil {
		h.Level2SnapshotEvent(evt, market)
	}
}

func (h *FeedHandler) OnLevel2Update(evt *exchange.Level2UpdateEvent, market exchange.Market) {
	if h != nil && h.Level2UpdateEvent != nil {
		h.Level2UpdateEvent(evt, market)
	}
}

func (h *FeedHandler) OnTicker(evt *exchange.TickerEvent, market exchange.Market) {
	if h != nil && h.TickerEvent != nil {
		h.TickerEvent(evt, market)
	}
}

// Stream 当前订阅的快照
type Stream struct {
	ChannelKey    string
	Market        exchange.Market
	TopOfBook     bool
	Trades        bool
	Level2Updates bool
	Tickers       bool
	IsConnected   bool
	Rate          int           // 每秒消息数
	Duration      time.Duration // 当前连接持续时间
}

type MarketDataFeed interface {
	Name() string

	SubscribeTrades(market exchange.Market) error
	UnsubscribeTrades(market exchange.Market) error
	SubscribeLevel2Updates(market exchange.Market) error
	UnsubscribeLevel2Updates(market exchange.Market) error
	SubscribeTicker(market exchange.Market) error
	UnsubscribeTicker(market exchange.Market) error

	// Reconnect 强制重连全部订阅
	Reconnect()
	// Close 关闭全部订阅，可重复调用
	Close()
	Streams() []Stream
}
