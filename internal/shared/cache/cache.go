package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis abre o cliente que serve o chain head e o snapshot da rodada.
// Timeouts curtos: nenhum caminho quente pode ficar preso esperando o Redis.
func ConnectRedis(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis addr not configured")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
