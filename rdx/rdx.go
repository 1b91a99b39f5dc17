package rdx

import (
	"os"
	"time"

	"clubhive/globals"

	"github.com/redis/go-redis/v9"
)

var Conn = redis.NewClient(&redis.Options{
	Addr: redisAddr(),
})

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// RdxSet stores a key with a TTL; a zero ttl means no expiry.
func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

// RdxDel removes a key (session invalidation on logout).
func RdxDel(key string) error {
	return Conn.Del(globals.Ctx, key).Err()
}
