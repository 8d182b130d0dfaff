// ratelimit 基于令牌桶的本地连接限流器
// 交易所对同一 ip 的 websocket 建连频率有限制，重连风暴时由这里挡住
package ratelimit

import (
	"time"

	"github.com/go-gotop/feedkit/limiter"
	"golang.org/x/time/rate"
)

var _ limiter.Limiter = (*RateLimiter)(nil)

// NewRateLimiter 每个 period 内最多允许 times 次建连
func NewRateLimiter(period time.Duration, times int) *RateLimiter {
	if times <= 0 {
		times = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &RateLimiter{
		ws: rate.NewLimiter(rate.Every(period/time.Duration(times)), times),
	}
}

type RateLimiter struct {
	ws *rate.Limiter
}

func (r *RateLimiter) WsAllow() bool {
	return r.ws.Allow()
}
