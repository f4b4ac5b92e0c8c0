package chain

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Head é a visão corrente da cadeia do host: altura e entropia do último bloco.
// Escrito pelo draw-worker a cada block_produced, lido pelo adaptador do host.
type Head struct {
	Height    uint64    `json:"height"`
	Seed      string    `json:"seed"` // hash do bloco em hex
	UpdatedAt time.Time `json:"updated_at"`
}

func (h Head) SeedBytes() ([]byte, error) {
	return hex.DecodeString(h.Seed)
}

var ErrNoHead = errors.New("chain head not available")

const headKey = "chain:head"

type HeadCache struct{ R *redis.Client }

func NewHeadCache(r *redis.Client) *HeadCache { return &HeadCache{R: r} }

func (c *HeadCache) Set(ctx context.Context, h Head) error {
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, headKey, b, 0).Err()
}

func (c *HeadCache) Get(ctx context.Context) (Head, error) {
	var h Head
	b, err := c.R.Get(ctx, headKey).Bytes()
	if err == redis.Nil {
		return h, ErrNoHead
	}
	if err != nil {
		return h, err
	}
	return h, json.Unmarshal(b, &h)
}
