package middlewares

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/twmb/murmur3"
)

// 已注销 token 的 redis 黑名单；JWT 本身无状态，
// 登出后的 token 在剩余有效期内拒绝通过认证
var denylist *redis.Client

// InitTokenDenylist 注入黑名单用的 redis 客户端；不调用则登出只在客户端生效
func InitTokenDenylist(client *redis.Client) {
	denylist = client
}

// token 本体不进 redis，只存哈希
func denylistKey(token string) string {
	h1, h2 := murmur3.Sum128([]byte(token))
	return fmt.Sprintf("auth:denylist:%016x%016x", h1, h2)
}

// RevokeToken 将 token 拉黑至其自然过期
func RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	if denylist == nil || ttl <= 0 {
		return nil
	}
	return denylist.Set(ctx, denylistKey(token), 1, ttl).Err()
}

// IsTokenRevoked 查询 token 是否已注销；redis 故障时放行
func IsTokenRevoked(ctx context.Context, token string) bool {
	if denylist == nil {
		return false
	}
	n, err := denylist.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
