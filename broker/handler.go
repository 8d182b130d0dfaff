package broker

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/go-gotop/feedkit/dfmanager"
	"github.com/go-gotop/feedkit/exchange"
	"github.com/go-kratos/kratos/v2/log"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

type sink struct {
	ctx      context.Context
	pub      Publisher
	exchange string
	logger   *log.Helper
	now      func() time.Time
}

// NewFeedHandler 返回把每个事件发布到 pub 的 FeedHandler，next 的回调在发布后执行
// pub 需要是非阻塞的，回调运行在连接的读协程中
func NewFeedHandler(ctx context.Context, pub Publisher, exchangeName string, logger *log.Helper, next *dfmanager.FeedHandler) *dfmanager.FeedHandler {
	if next == nil {
		next = &dfmanager.FeedHandler{}
	}
	s := &sink{
		ctx:      ctx,
		pub:      pub,
		exchange: exchangeName,
		logger:   logger,
		now:      time.Now,
	}

	return &dfmanager.FeedHandler{
		ErrorHandler: func(err error, key string) {
			s.status(key, StatusError, err)
			next.OnError(err, key)
		},
		ConnectingHandler: func(key string) {
			s.status(key, StatusConnecting, nil)
			next.OnConnecting(key)
		},
		ConnectedHandler: func(key string) {
			s.status(key, StatusConnected, nil)
			next.OnConnected(key)
		},
		DisconnectedHandler: func(key string) {
			s.status(key, StatusDisconnected, nil)
			next.OnDisconnected(key)
		},
		ClosingHandler: func(key string) {
			s.status(key, StatusClosing, nil)
			next.OnClosing(key)
		},
		ClosedHandler: func(key string) {
			s.status(key, StatusClosed, nil)
			next.OnClosed(key)
		},
		ReconnectingHandler: func(key string) {
			s.status(key, StatusReconnecting, nil)
			next.OnReconnecting(key)
		},
		TradeEvent: func(evt *exchange.TradeEvent, market exchange.Market) {
			publishMarket(s, TradeTopicType, market, evt)
			next.OnTrade(evt, market)
		},
		Level2SnapshotEvent: func(evt *exchange.Level2SnapshotEvent, market exchange.Market) {
			publishMarket(s, Level2SnapshotTopicType, market, evt)
			next.OnLevel2Snapshot(evt, market)
		},
		Level2UpdateEvent: func(evt *exchange.Level2UpdateEvent, market exchange.Market) {
			publishMarket(s, Level2UpdateTopicType, market, evt)
			next.OnLevel2Update(evt, market)
		},
		TickerEvent: func(evt *exchange.TickerEvent, market exchange.Market) {
			publishMarket(s, TickerTopicType, market, evt)
			next.OnTicker(evt, market)
		},
	}
}

func publishMarket[T any](s *sink, topic string, market exchange.Market, evt T) {
	body, err := Json.Marshal(MarketEvent[T]{Market: market, Event: evt})
	if err != nil {
		s.logger.Errorf("marshal %s event error: %v", topic, err)
		return
	}
	s.publish(topic, &Message{
		Headers: Headers{
			HeaderExchange: s.exchange,
			HeaderMarket:   market.ID,
			HeaderType:     topic,
		},
		Key:  []byte(market.ID),
		Body: body,
	})
}

func (s *sink) status(key, status string, cause error) {
	evt := FeedStatusEvent{
		Timestamp:  s.now().UnixMilli(),
		Exchange:   s.exchange,
		ChannelKey: key,
		Status:     status,
	}
	if cause != nil {
		evt.Error = cause.Error()
	}
	body, err := Json.Marshal(evt)
	if err != nil {
		s.logger.Errorf("marshal status event error: %v", err)
		return
	}
	s.publish(FeedStatusTopicType, &Message{
		Headers: Headers{
			HeaderExchange: s.exchange,
			HeaderType:     FeedStatusTopicType,
		},
		Key:  []byte(key),
		Body: body,
	})
}

func (s *sink) publish(topic string, msg *Message) {
	if err := s.pub.Publish(s.ctx, topic, msg); err != nil {
		s.logger.Errorf("publish %s error: %v", topic, err)
	}
}
