package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisMaxRetries = 5
	redisRetryDelay = 2 * time.Second
)

// InitRedis connects to redis, retrying while the server comes up.
func InitRedis(ctx context.Context, cfg *Config, log zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Network:  "tcp",
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	var err error
	for i := 0; i < redisMaxRetries; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("max", redisMaxRetries).Msg("redis not reachable")
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(redisRetryDelay):
		}
	}
	client.Close()
	return nil, fmt.Errorf("connect to redis after %d attempts: %w", redisMaxRetries, err)
}
