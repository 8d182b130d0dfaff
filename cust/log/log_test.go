package center

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis 只实现 LPush 和 LTrim
type fakeRedis struct {
	redis.Cmdable
	lists   map[string][]string
	pushErr error
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		f.lists[key] = append([]string{string(v.([]byte))}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	l := f.lists[key]
	if int64(len(l)) > stop+1 {
		f.lists[key] = l[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

type countLogger struct{ n int }

func (c *countLogger) Log(level log.Level, keyvals ...interface{}) error {
	c.n++
	return nil
}

func TestRedisHandler(t *testing.T) {
	rdb := &fakeRedis{lists: map[string][]string{}}
	h := newRedisHandler(rdb, "geminifeed", 2)
	h.now = func() time.Time { return time.Unix(0, 42) }

	require.NoError(t, h.Log(log.LevelWarn, "msg", "gemini btcusd disconnected", "dangling"))

	list := rdb.lists["log:geminifeed"]
	require.Len(t, list, 1)
	var entry LogEntry
	require.NoError(t, Json.Unmarshal([]byte(list[0]), &entry))
	assert.Equal(t, "geminifeed", entry.Service)
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, int64(42), entry.Timestamp)
	assert.Equal(t, "msg=gemini btcusd disconnected dangling=MISSING_VALUE", entry.Message)

	// 超过上限时只保留最新的
	require.NoError(t, h.Log(log.LevelInfo, "msg", "2"))
	require.NoError(t, h.Log(log.LevelInfo, "msg", "3"))
	assert.Len(t, rdb.lists["log:geminifeed"], 2)
	assert.Contains(t, rdb.lists["log:geminifeed"][0], "msg=3")
}

func TestMultiLoggerContinuesAfterError(t *testing.T) {
	failing := newRedisHandler(&fakeRedis{lists: map[string][]string{}, pushErr: errors.New("redis down")}, "svc", 0)
	counter := &countLogger{}
	multi := newMultiLogger(failing, counter)

	err := multi.Log(log.LevelError, "msg", "x")
	assert.Error(t, err)
	assert.Equal(t, 1, counter.n)
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	logger := NewLogger(&Config{Env: "DEV", Service: "geminifeed", Level: "ERROR"})
	require.NotNil(t, logger)
	helper := log.NewHelper(logger)
	helper.Debug("filtered")
	helper.Error("kept")
}
