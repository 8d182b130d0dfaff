package broker

import (
	"github.com/go-gotop/feedkit/exchange"
)

// MarketEvent 投递到行情 topic 的消息体
type MarketEvent[T any] struct {
	Market exchange.Market `json:"market"`
	Event  T               `json:"event"`
}

// FeedStatusEvent 频道状态变化
type FeedStatusEvent struct {
	Timestamp  int64  `json:"timestamp"`
	Exchange   string `json:"exchange"`
	ChannelKey string `json:"channelKey"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

const (
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusClosing      = "closing"
	StatusClosed       = "closed"
	StatusReconnecting = "reconnecting"
	StatusError        = "error"
)
