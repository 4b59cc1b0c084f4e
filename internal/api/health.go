package api

import (
	"context"  // Ping timeouts
	"net/http" // HTTP status codes
	"time"     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

const pingTimeout = 2 * time.Second

// HealthHandler reports database and Redis reachability
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		dbStatus := "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
		}
		redisStatus := "disabled" // Redis is optional
		if rdb != nil {
			redisStatus = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "down"
			}
		}

		if dbStatus != "up" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": dbStatus, "redis": redisStatus})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbStatus, "redis": redisStatus})
	}
}
