package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginThrottle_BurstExhaustion(t *testing.T) {
	// 每分钟 1 次补充对测试时长来说约等于不补充
	throttle := NewLoginThrottle(1, 3)
	defer throttle.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.Allow("10.0.0.1"), "attempt %d", i+1)
	}
	assert.False(t, throttle.Allow("10.0.0.1"))

	// 各 IP 的桶相互独立
	assert.True(t, throttle.Allow("10.0.0.2"))
}

func TestLoginThrottle_StopIsIdempotent(t *testing.T) {
	throttle := NewLoginThrottle(10, 5)
	throttle.Stop()
	throttle.Stop()

	// 停止后 Allow 仍可用，只是不再清理
	assert.True(t, throttle.Allow("10.0.0.3"))
}
