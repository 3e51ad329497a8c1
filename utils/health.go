package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Redis     *bool     `json:"redis,omitempty"` // nil when the view cache is in memory
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings the configured services once and stores the snapshot.
func CheckHealth(ctx context.Context, redisClient *redis.Client) HealthStatus {
	status := HealthStatus{CheckedAt: time.Now()}
	if redisClient != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := redisClient.Ping(pingCtx).Err() == nil
		cancel()
		status.Redis = &ok
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is done.
func StartHealthMonitor(ctx context.Context, redisClient *redis.Client, interval time.Duration) {
	CheckHealth(ctx, redisClient)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, redisClient)
			}
		}
	}()
}
