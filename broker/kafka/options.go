package kafka

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultAddr = "127.0.0.1:9092"

type Option func(*options)

type options struct {
	addrs        []string
	logger       *log.Helper
	async        bool          // 异步写入，不阻塞调用方
	batchTimeout time.Duration // 批量发送的最长等待时间
	topicPrefix  string
}

func WithAddress(addrs ...string) Option {
	return func(o *options) {
		o.addrs = addrs
	}
}

func WithLogger(logger *log.Helper) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithAsync(async bool) Option {
	return func(o *options) {
		o.async = async
	}
}

func WithBatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.batchTimeout = d
	}
}

func WithTopicPrefix(prefix string) Option {
	return func(o *options) {
		o.topicPrefix = prefix
	}
}
