package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/chain-ingest/publisher"
	"github.com/radieske/lottery-platform-poc/pkg/contracts/events"
)

// WSClient consome o feed de blocos do chain-simulator via WebSocket e
// republica cada bloco no tópico Kafka de block_produced.
type WSClient struct {
	URL       string                    // URL do endpoint WebSocket do host
	Log       *zap.Logger               // Logger estruturado
	Publisher *publisher.KafkaPublisher // Publisher Kafka de blocos
}

// Start inicia o loop de conexão e escuta do WebSocket.
// Em caso de desconexão, tenta reconectar automaticamente com backoff.
func (c *WSClient) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				time.Sleep(3 * time.Second) // Aguarda antes de tentar reconectar
			}
		}
	}
}

// connectAndListen estabelece a conexão WebSocket e processa mensagens.
// Cada bloco recebido é desserializado e publicado no Kafka.
func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to chain WS", zap.String("url", c.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		var block events.BlockProduced
		if err := json.Unmarshal(message, &block); err != nil {
			c.Log.Warn("invalid message", zap.Error(err))
			continue
		}
		if block.Seed == "" {
			c.Log.Warn("block without seed, skipping", zap.Uint64("height", block.Height))
			continue
		}

		// Publica o bloco recebido no Kafka
		if err := c.Publisher.Publish(ctx, block); err != nil {
			c.Log.Error("failed to publish to Kafka", zap.Error(err))
		}
	}
}
