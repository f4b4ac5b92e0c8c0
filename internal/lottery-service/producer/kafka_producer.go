package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/lottery-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos da loteria em tópicos dedicados.
type KafkaPublisher struct {
	BetPlaced     *kafka.Writer
	DrawCompleted *kafka.Writer
	RoundSettled  *kafka.Writer
}

func NewKafkaPublisher(betPlaced, drawCompleted, roundSettled *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		BetPlaced:     betPlaced,
		DrawCompleted: drawCompleted,
		RoundSettled:  roundSettled,
	}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.BetPlaced.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}

func (p *KafkaPublisher) PublishDrawCompleted(ctx context.Context, e events.DrawCompleted) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.DrawCompleted.WriteMessages(ctx, kafka.Message{Key: []byte(e.RoundID), Value: b})
}

func (p *KafkaPublisher) PublishRoundSettled(ctx context.Context, e events.RoundSettled) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.RoundSettled.WriteMessages(ctx, kafka.Message{Key: []byte(e.RoundID), Value: b})
}
