package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// 空闲客户端回收扫描周期
const limiterSweepInterval = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter 按客户端 IP 维护令牌桶，空闲条目后台回收
type IPRateLimiter struct {
	rps     float64
	burst   int
	idleTTL time.Duration
	clients sync.Map
	stop    chan struct{}
}

// NewIPRateLimiter 创建限流器并启动回收 goroutine。
// idleTTL 内没有请求的 IP 条目会被清掉。
func NewIPRateLimiter(rps float64, burst int, idleTTL time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		rps:     rps,
		burst:   burst,
		idleTTL: idleTTL,
		stop:    make(chan struct{}),
	}

	go rl.sweepIdleClients()

	return rl
}

// Middleware 返回 gin 中间件，超出速率返回 429
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := rl.lookup(clientIP(c))

		if !client.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Too many requests",
			})
			return
		}

		c.Next()
	}
}

// StopCleanup 停止后台回收
func (rl *IPRateLimiter) StopCleanup() {
	close(rl.stop)
}

// lookup 取出或创建该 IP 的令牌桶，常见路径不分配新桶
func (rl *IPRateLimiter) lookup(ip string) *clientLimiter {
	now := time.Now()
	if val, ok := rl.clients.Load(ip); ok {
		client := val.(*clientLimiter)
		client.lastSeen = now
		return client
	}

	val, _ := rl.clients.LoadOrStore(ip, &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
		lastSeen: now,
	})
	return val.(*clientLimiter)
}

func (rl *IPRateLimiter) sweepIdleClients() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.clients.Range(func(key, value interface{}) bool {
				client := value.(*clientLimiter)
				if time.Since(client.lastSeen) > rl.idleTTL {
					rl.clients.Delete(key)
				}
				return true
			})
		case <-rl.stop:
			return
		}
	}
}

// clientIP 优先取代理头里的原始地址
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
