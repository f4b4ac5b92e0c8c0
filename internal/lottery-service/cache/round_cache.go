package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoundCache mantém o snapshot da rodada corrente no Redis para leitura barata
// por outros serviços, atualizado write-through a cada mutação.
type RoundCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRoundCache(c *redis.Client, ttl time.Duration) *RoundCache {
	return &RoundCache{Client: c, TTL: ttl}
}

const roundKey = "lottery:round:current"

func (r *RoundCache) SetCurrent(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, roundKey, b, r.TTL).Err()
}

func (r *RoundCache) GetCurrent(ctx context.Context, dst any) (bool, error) {
	b, err := r.Client.Get(ctx, roundKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}
