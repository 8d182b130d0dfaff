package dfgemini

import (
	"time"

	"github.com/go-gotop/feedkit/wsmanager"
	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultEndpoint         = "wss://api.gemini.com/v1/marketdata"
	defaultWatchdogInterval = 30 * time.Second
)

type Option func(*options)

type options struct {
	wsEndpoint       string
	logger           *log.Helper
	watchdogInterval time.Duration              // 无消息超过该时长强制重连
	wsm              wsmanager.WebsocketManager // 连接池，为 nil 时使用默认实现
}

func WithLogger(logger *log.Helper) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithWsEndpoint(wsEndpoint string) Option {
	return func(o *options) {
		o.wsEndpoint = wsEndpoint
	}
}

// WithWatchdogInterval 非正数被忽略，保留默认的 30s
func WithWatchdogInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.watchdogInterval = interval
		}
	}
}

func WithWebsocketManager(wsm wsmanager.WebsocketManager) Option {
	return func(o *options) {
		o.wsm = wsm
	}
}
