package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/cache"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/chain"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	lhost "github.com/radieske/lottery-platform-poc/internal/lottery-service/host"
	lhttp "github.com/radieske/lottery-platform-poc/internal/lottery-service/http"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/producer"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/repo"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/wallet"
	"github.com/radieske/lottery-platform-poc/internal/shared/config"
	"github.com/radieske/lottery-platform-poc/internal/shared/db"
	skafka "github.com/radieske/lottery-platform-poc/internal/shared/kafka"
	"github.com/radieske/lottery-platform-poc/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writers (eventos da loteria)
	betPlacedW := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	drawCompletedW := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicDrawCompleted)
	roundSettledW := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
	defer betPlacedW.Close()
	defer drawCompletedW.Close()
	defer roundSettledW.Close()

	// deps
	repository := repo.NewPostgres(pg)
	rcache := cache.NewRoundCache(rdb, 60*time.Second)
	heads := chain.NewHeadCache(rdb)
	wcli := wallet.New(cfg.WalletURL) // wallet-service
	publ := producer.NewKafkaPublisher(betPlacedW, drawCompletedW, roundSettledW)

	// engine + host adapter
	hostAdapter := lhost.NewAdapter(log, wcli, heads, publ)
	engCfg := engine.Config{
		DrawIntervalBlocks: cfg.DrawInterval,
		MinStakeCents:      cfg.MinStakeCents,
		GenesisHeight:      cfg.GenesisHeight,
	}

	var eng *engine.Engine
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	round, ok, err := repository.LoadCurrentRound(ctx)
	if err != nil {
		log.Warn("round recovery failed, starting fresh", zap.Error(err))
	}
	if ok {
		// rodada presa em DRAWING pode ter uma liquidação pela metade; o plano
		// gravado diz quais parcelas já foram pagas
		var pending *engine.PendingSettlement
		if round.State == engine.StateDrawing {
			pending, err = repository.LoadPendingPayouts(ctx, round.ID)
			if err != nil {
				log.Warn("pending payouts recovery failed", zap.Error(err))
				pending = nil
			}
		}
		log.Info("resuming round",
			zap.String("round_id", round.ID),
			zap.Int64("pot_cents", round.PotCents),
			zap.Int("bets", len(round.Bets)),
			zap.Bool("settlement_pending", pending != nil),
		)
		eng = engine.Restore(engCfg, hostAdapter, round, pending)
	} else {
		eng = engine.New(engCfg, hostAdapter)
	}
	cancel()

	// HTTP público
	api := lhttp.NewServer(log, eng, repository, rcache)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.PingContext(r.Context()); err != nil {
			http.Error(w, "pg", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		addr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("metrics/health", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	log.Info("lottery-service listening",
		zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)),
		zap.Uint64("draw_interval", cfg.DrawInterval),
		zap.Int64("min_stake_cents", cfg.MinStakeCents),
	)
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
