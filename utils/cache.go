// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"halaqat/config"

	"github.com/go-redis/redis/v8"
)

// ViewCacheClient backs the plan/booking view cache when VIEW_CACHE_BACKEND=redis.
var ViewCacheClient *redis.Client

// InitViewCache initializes the Redis client for the student view cache.
func InitViewCache() {
	ViewCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisViewCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ViewCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (View Cache): %v", err)
	}
}

// GetViewCacheClient returns the view cache client, connecting on first use.
func GetViewCacheClient() *redis.Client {
	if ViewCacheClient == nil {
		InitViewCache()
	}
	return ViewCacheClient
}
