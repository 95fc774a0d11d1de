package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Day-close and reference cache keys
const (
	DayCloseKeyFmt = "dayclose:%d:%s"
	GameListKey    = "games:active"
)

var client *redis.Client

// Init initializes the Redis connection
func Init() error {
	// K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services
	host := os.Getenv("REDIS_SERVICE_HOST")
	if host == "" {
		host = "redis" // fallback to service name
	}
	port := os.Getenv("REDIS_SERVICE_PORT")
	if port == "" {
		port = "6379"
	}

	client = redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

func dayCloseKey(storeID int, date string) string {
	return fmt.Sprintf(DayCloseKeyFmt, storeID, date)
}

// GetCachedDayClose returns a cached day-close preview if available.
// Posting never reads this; it always recomputes inside its transaction.
func GetCachedDayClose(ctx context.Context, storeID int, date string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, dayCloseKey(storeID, date)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheDayClose caches a day-close preview for 2 minutes
func CacheDayClose(ctx context.Context, storeID int, date string, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, dayCloseKey(storeID, date), data, 2*time.Minute)
}

// InvalidateDayClose removes the cached preview for one store-day.
// Called on every write that can change the summary so the next
// preview reflects it immediately.
func InvalidateDayClose(ctx context.Context, storeID int, date string) {
	if client == nil {
		return
	}
	client.Del(ctx, dayCloseKey(storeID, date))
}

// GetCachedGames returns the cached active game list if available
func GetCachedGames(ctx context.Context) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, GameListKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// CacheGames caches the active game list for 10 minutes
func CacheGames(ctx context.Context, data []byte) {
	if client == nil {
		return
	}
	client.Set(ctx, GameListKey, data, 10*time.Minute)
}

// InvalidateGames clears the cached game list
func InvalidateGames(ctx context.Context) {
	if client == nil {
		return
	}
	client.Del(ctx, GameListKey)
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	keys, err := client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
