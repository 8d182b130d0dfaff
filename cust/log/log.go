package center

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

const (
	EnvProduction = "PRD"

	defaultMaxLen = 100000
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Env     string
	Service string
	Level   string // DEBUG, INFO, WARN, ERROR

	RedisAddr   string
	RedisPasswd string
	RedisDB     int
	// RedisMaxLen 日志列表保留的最大条数
	RedisMaxLen int64
}

type LogEntry struct {
	Service   string `json:"service"`
	Level     string `json:"level"`
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}

// RedisHandler 是一个log.Logger，将日志写入 Redis 列表 log:<service>
type RedisHandler struct {
	client      redis.Cmdable
	serviceName string // 日志json格式中的服务名 用做检索
	maxLen      int64
	now         func() time.Time
}

type MultiLogger struct {
	loggers []log.Logger
}

func newMultiLogger(loggers ...log.Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
	}
}

// Log 写入全部 logger，单个失败不影响其他
func (m *MultiLogger) Log(level log.Level, keyvals ...interface{}) error {
	var first error
	for _, logger := range m.loggers {
		if err := logger.Log(level, keyvals...); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *RedisHandler) key() string {
	return "log:" + h.serviceName
}

// Log 实现了log.Logger接口。
func (h *RedisHandler) Log(level log.Level, keyvals ...interface{}) error {
	var b strings.Builder
	for i := 0; i < len(keyvals); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, "%v=%v", keyvals[i], keyvals[i+1])
		} else {
			fmt.Fprintf(&b, "%v=MISSING_VALUE", keyvals[i]) // 处理键没有值的情况
		}
	}
	entry := &LogEntry{
		Service:   h.serviceName,
		Level:     level.String(),
		Timestamp: h.now().UnixNano(),
		Message:   b.String(),
	}
	data, err := Json.Marshal(entry)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := h.client.LPush(ctx, h.key(), data).Err(); err != nil {
		return err
	}
	return h.client.LTrim(ctx, h.key(), 0, h.maxLen-1).Err()
}

func newStdoutHandler() log.Logger {
	return log.NewStdLogger(os.Stdout)
}

func newRedisHandler(client redis.Cmdable, name string, maxLen int64) *RedisHandler {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &RedisHandler{
		client:      client,
		serviceName: name,
		maxLen:      maxLen,
		now:         time.Now,
	}
}

func newRedisClient(addr, passwd string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: passwd,
		DB:       db,
	})
}

// NewLogger 输出到 stdout，生产环境同时写入 Redis
func NewLogger(conf *Config) log.Logger {
	var multi *MultiLogger
	if conf.Env == EnvProduction && conf.RedisAddr != "" {
		handler := newRedisHandler(newRedisClient(conf.RedisAddr, conf.RedisPasswd, conf.RedisDB), conf.Service, conf.RedisMaxLen)
		multi = newMultiLogger(newStdoutHandler(), handler)
	} else {
		multi = newMultiLogger(newStdoutHandler())
	}

	logger := log.With(multi,
		"ts", log.DefaultTimestamp,
		"service", conf.Service,
		"caller", log.DefaultCaller,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(conf.Level)))
}
