// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"joservice/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to the configured Redis server on the given logical DB.
func NewRedisClient(db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis db %d: %w", db, err)
	}
	return client, nil
}
