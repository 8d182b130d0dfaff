package broker

import (
	"context"
)

const (
	TradeTopicType          string = "MARKET.TRADE"
	Level2SnapshotTopicType string = "MARKET.L2SNAPSHOT"
	Level2UpdateTopicType   string = "MARKET.L2UPDATE"
	TickerTopicType         string = "MARKET.TICKER"
	FeedStatusTopicType     string = "FEED.STATUS"
)

// 消息头字段
const (
	HeaderExchange = "exchange"
	HeaderMarket   = "market"
	HeaderType     = "type"
)

type Headers map[string]string

type Message struct {
	Headers Headers
	Key     []byte
	Body    []byte
}

// Publisher 把归一化后的行情事件投递到下游
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *Message) error
	Close() error
}
