// 包 utils：Postgres / SQLite / Redis 连接与证书工具，统一环境变量读取
package utils

import (
	"net"

	"github.com/redis/go-redis/v9"

	"tile-scan/internal/logger"
)

// OpenRedis：使用地址与密码打开 Redis 客户端；地址为空返回 nil
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// OpenRedisFromEnv：REDIS_ADDR 优先，否则 REDIS_HOST:REDIS_PORT；REDIS_DB 非法或为负时回退到 0
func OpenRedisFromEnv() *redis.Client {
	addr := envOr("REDIS_ADDR", net.JoinHostPort(envOr("REDIS_HOST", "127.0.0.1"), envOr("REDIS_PORT", "6379")))
	db := envIntOr("REDIS_DB", 0)
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: envOr("REDIS_PASS", ""), DB: db})
}
