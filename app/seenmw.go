package app

import (
	"Gin_postgres_redis_loan_manager/db"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen updates the user's last_seen_at at most once per throttle
// window. The SetNX key in redis is the window marker; DB write errors are
// ignored so a slow write never blocks a request.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("userID")
		if !ok {
			c.Next()
			return
		}
		uid, _ := v.(string)
		if uid == "" {
			c.Next()
			return
		}

		key := "user:lastseen:" + uid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = repo.TouchUserSeen(c, uid)
		}
		c.Next()
	}
}
