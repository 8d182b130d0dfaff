package manager

import (
	"github.com/cenkalti/backoff/v4"
	"github.com/go-gotop/feedkit/limiter"
	"github.com/go-gotop/feedkit/websocket"
	"github.com/go-gotop/feedkit/wsmanager"
	"github.com/go-kratos/kratos/v2/log"
)

type ConnConfig func(*connConfig)

// WebsocketFactory 创建一个尚未连接的 websocket
type WebsocketFactory func(conf *wsmanager.WebsocketConfig) websocket.Websocket

type connConfig struct {
	logger      *log.Helper            // 日志记录器
	maxConn     int                    // 最大连接数
	connLimiter limiter.Limiter        // 连接限流器
	newBackOff  func() backoff.BackOff // 断线重连退避策略
	factory     WebsocketFactory       // 连接构造
}

func WithLogger(logger *log.Helper) ConnConfig {
	return func(c *connConfig) {
		c.logger = logger
	}
}

func WithMaxConn(maxConn int) ConnConfig {
	return func(c *connConfig) {
		c.maxConn = maxConn
	}
}

func WithConnLimiter(connLimiter limiter.Limiter) ConnConfig {
	return func(c *connConfig) {
		c.connLimiter = connLimiter
	}
}

func WithBackOff(newBackOff func() backoff.BackOff) ConnConfig {
	return func(c *connConfig) {
		c.newBackOff = newBackOff
	}
}

func WithWebsocketFactory(factory WebsocketFactory) ConnConfig {
	return func(c *connConfig) {
		c.factory = factory
	}
}
