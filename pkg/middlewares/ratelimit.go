package middlewares

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/howufeel/howufeel/utils/ratelimit"
)

var (
	globalLimiter ratelimit.Limiter
	globalRules   *ratelimit.Rules
	limitOnce     sync.Once
)

// InitGlobalLimiter 初始化全局限流器及各端点的限流规则
func InitGlobalLimiter(limiter ratelimit.Limiter, rules *ratelimit.Rules) {
	limitOnce.Do(func() {
		globalLimiter = limiter
		globalRules = rules
	})
}

// RateLimitMiddleware 按端点类别限流
// 已登录请求按 user_id 计数，匿名请求（注册/登录）按客户端 IP 计数
func RateLimitMiddleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if globalLimiter == nil || globalRules == nil {
			c.Next()
			return
		}

		key := clientKey(c, endpoint)
		rule := ratelimit.RuleFor(endpoint, globalRules)

		allowed, err := globalLimiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "限流检查失败",
			})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Next()
	}
}

// MaxConcurrencyMiddleware 最大并发控制中间件
// 限制同时处理的请求数量，防止 Goroutine 数量无限增长导致 OOM (Out Of Memory)
// 这是控制内存占用最直接有效的方法
func MaxConcurrencyMiddleware(maxConcurrent int) gin.HandlerFunc {
	// 使用带缓冲的 channel 作为信号量
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}: // 尝试获取信号量
			defer func() { <-sem }() // 处理完释放信号量
			c.Next()
		default:
			// 获取失败，说明并发已满，直接拒绝
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Service Unavailable - Too many concurrent requests",
			})
		}
	}
}

func clientKey(c *gin.Context, endpoint string) string {
	if userID, exists := c.Get("user_id"); exists {
		return fmt.Sprintf("%s:user:%v", endpoint, userID)
	}
	return fmt.Sprintf("%s:ip:%s", endpoint, c.ClientIP())
}
