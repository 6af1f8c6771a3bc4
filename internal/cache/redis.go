// Package cache holds an optional Redis client. Every helper is nil-safe:
// with no client configured the callers fall straight through to the
// database.
package cache

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is nil when REDIS_ADDR is unset.
var Client *redis.Client

// Init connects to Redis if REDIS_ADDR is configured. Failure to connect is
// logged and leaves Client nil; the app runs without caching.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, continuing without cache: %v", addr, err)
		return
	}

	log.Println("✅ Redis connected successfully")
	Client = client
}

// Close releases the Redis connection if one was opened.
func Close() {
	if Client != nil {
		_ = Client.Close()
		Client = nil
	}
}
