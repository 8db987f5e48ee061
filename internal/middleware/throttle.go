package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginThrottle 按客户端 IP 限制登录尝试频率，减缓口令爆破。
// 每个 IP 一个令牌桶；长时间不活跃的桶定期清理。
type LoginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	rate     rate.Limit
	burst    int

	stop     chan struct{}
	stopOnce sync.Once
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginThrottle 创建登录限流器，perMinute 为每分钟允许的尝试数
func NewLoginThrottle(perMinute, burst int) *LoginThrottle {
	t := &LoginThrottle{
		limiters: make(map[string]*throttleEntry),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Stop 终止清理协程，可安全重复调用
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Handler 限流中间件，超额返回 429
func (t *LoginThrottle) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.Allow(c.ClientIP()) {
			c.String(http.StatusTooManyRequests, "too many login attempts, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Allow 判断该 IP 当前是否允许一次尝试
func (t *LoginThrottle) Allow(ip string) bool {
	t.mu.Lock()
	entry, ok := t.limiters[ip]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	t.mu.Unlock()

	return entry.limiter.Allow()
}

// cleanupLoop 每 10 分钟清理一次不活跃的桶
func (t *LoginThrottle) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-30 * time.Minute)
			t.mu.Lock()
			for ip, entry := range t.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(t.limiters, ip)
				}
			}
			t.mu.Unlock()
		}
	}
}
