package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWsAllowBurst(t *testing.T) {
	l := NewRateLimiter(time.Hour, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.WsAllow())
	}
	assert.False(t, l.WsAllow(), "Expected fourth connection in the same period to be refused")
}

func TestWsAllowRefill(t *testing.T) {
	l := NewRateLimiter(20*time.Millisecond, 1)
	assert.True(t, l.WsAllow())
	assert.False(t, l.WsAllow())
	assert.Eventually(t, l.WsAllow, time.Second, 5*time.Millisecond)
}

func TestInvalidArgs(t *testing.T) {
	l := NewRateLimiter(0, 0)
	assert.True(t, l.WsAllow())
}
