// File: utils/cache.go
package utils

import (
	"cleanly/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// LockClient is the Redis client used for cross-instance leases.
var LockClient *redis.Client

// InitLockClient connects the lease client (DB from AppConfig).
func InitLockClient() {
	LockClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLockDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := LockClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Lock): %v", err)
	}
}

// GetLockClient returns the lease client, connecting on first use.
func GetLockClient() *redis.Client {
	if LockClient == nil {
		InitLockClient()
	}
	return LockClient
}
