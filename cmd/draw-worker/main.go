package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	lcache "github.com/radieske/lottery-platform-poc/internal/lottery-service/cache"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/chain"
	ldto "github.com/radieske/lottery-platform-poc/internal/lottery-service/dto"
	sharedcache "github.com/radieske/lottery-platform-poc/internal/shared/cache"
	"github.com/radieske/lottery-platform-poc/internal/shared/config"
	"github.com/radieske/lottery-platform-poc/internal/shared/kafka"
	"github.com/radieske/lottery-platform-poc/internal/shared/logger"
	"github.com/radieske/lottery-platform-poc/internal/shared/metrics"
	ev "github.com/radieske/lottery-platform-poc/pkg/contracts/events"
)

var (
	blocksConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draw_worker_blocks_consumed_total",
		Help: "Blocos consumidos do Kafka",
	})
	drawsTriggered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draw_worker_draws_triggered_total",
		Help: "Gatilhos de sorteio por resultado",
	}, []string{"result"})
	errorsBy = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draw_worker_errors_total",
		Help: "Erros por estágio",
	}, []string{"stage"})
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(blocksConsumed, drawsTriggered, errorsBy)

	// Redis: mantém o chain head que o lottery-service usa como Ledger Host
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()
	heads := chain.NewHeadCache(redisClient)
	rounds := lcache.NewRoundCache(redisClient, 0)

	// Kafka consumer: consome blocos produzidos pelo host
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBlockProduced, "draw-worker")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicBlockProducedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBlockProducedDLQ)
		defer dlqWriter.Close()
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	log.Info("draw-worker started",
		zap.String("consume", cfg.TopicBlockProduced),
		zap.String("lottery", cfg.LotteryURL),
	)

	ctx := context.Background()

	// Loop principal: cada bloco atualiza o head e dispara uma tentativa de sorteio
	for {
		_, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			errorsBy.WithLabelValues("read").Inc()
			time.Sleep(time.Second)
			continue
		}
		blocksConsumed.Inc()

		var block ev.BlockProduced
		if jerr := json.Unmarshal(value, &block); jerr != nil {
			log.Error("unmarshal block_produced", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			continue
		}

		if err := processOne(ctx, log, cfg, heads, rounds, dlqWriter, &block); err != nil {
			log.Error("process block", zap.Uint64("height", block.Height), zap.Error(err))
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// processOne executa o fluxo de um bloco:
// 1. Atualiza o chain head no Redis (altura + entropia correntes)
// 2. Dispara a tentativa de sorteio no lottery-service
// 3. Em caso de falha de transporte, tenta de novo e por fim envia para DLQ
func processOne(
	ctx context.Context,
	log *zap.Logger,
	cfg config.Config,
	heads *chain.HeadCache,
	rounds *lcache.RoundCache,
	dlqWriter *kafka.Writer,
	block *ev.BlockProduced,
) error {
	if err := heads.Set(ctx, chain.Head{
		Height:    block.Height,
		Seed:      block.Seed,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		errorsBy.WithLabelValues("head_set").Inc()
		return err
	}

	// leitura barata do snapshot da rodada: evita a chamada HTTP quando o
	// intervalo claramente ainda não fechou
	var st ldto.RoundStatusResponse
	if ok, cerr := rounds.GetCurrent(ctx, &st); cerr == nil && ok && shouldSkipTrigger(st, block.Height) {
		drawsTriggered.WithLabelValues("skipped").Inc()
		return nil
	}

	res, err := callTriggerDraw(ctx, cfg, block)
	if err != nil {
		// Retry simples: tenta até 3 vezes antes de enviar para DLQ
		const retries = 3
		for i := 0; i < retries; i++ {
			time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
			if res, err = callTriggerDraw(ctx, cfg, block); err == nil {
				break
			}
		}
		if err != nil {
			errorsBy.WithLabelValues("trigger").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, block.Seed, mustJSON(block))
			}
			return err
		}
	}

	drawsTriggered.WithLabelValues(res.Status).Inc()
	switch res.Status {
	case "SETTLED":
		log.Info("round settled",
			zap.String("roundId", res.RoundID),
			zap.Uint64("height", res.Height),
			zap.Int("winners", len(res.Winners)),
		)
	case "NO_WINNER":
		log.Info("draw without winner", zap.Uint64("height", res.Height))
	case "PAYOUT_PENDING":
		// a liquidação drena nos próximos blocos via RetrySettlement
		log.Warn("settlement pending", zap.String("roundId", res.RoundID))
	}
	return nil
}

// shouldSkipTrigger decide se o bloco pode ser descartado sem chamar o
// lottery-service. Só pula quando a rodada está OPEN e o intervalo ainda não
// fechou; DRAWING nunca pula, porque o gatilho é o que drena uma liquidação
// pendente. Snapshot velho só atrasa o LastDrawHeight, o que nunca transforma
// um sorteio devido em pulado.
func shouldSkipTrigger(st ldto.RoundStatusResponse, height uint64) bool {
	if st.State != "OPEN" || st.DrawInterval == 0 {
		return false
	}
	return height >= st.LastDrawHeight && height-st.LastDrawHeight < st.DrawInterval
}

// callTriggerDraw faz a requisição HTTP interna que dispara o sorteio
func callTriggerDraw(ctx context.Context, cfg config.Config, block *ev.BlockProduced) (*ldto.DrawResponse, error) {
	body, _ := json.Marshal(ldto.TriggerDrawRequest{
		Height: block.Height,
		Seed:   block.Seed,
	})
	url := cfg.LotteryURL + "/internal/draws"

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// 502 é resposta esperada quando a liquidação ficou pendente; o corpo
	// ainda traz o DrawResponse
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusBadGateway {
		return nil, errors.New("lottery http " + resp.Status)
	}
	var out ldto.DrawResponse
	if jerr := json.NewDecoder(resp.Body).Decode(&out); jerr != nil {
		return nil, jerr
	}
	return &out, nil
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
