package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/shared/config"
	"github.com/radieske/lottery-platform-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	lotteryURL := cfg.LotteryURL
	walletURL := cfg.WalletURL
	chainURL := os.Getenv("CHAIN_URL")
	if chainURL == "" {
		chainURL = "http://localhost:8081"
	}
	lottery := rp(lotteryURL)
	wallet := rp(walletURL)
	chain := rp(chainURL)

	mux := http.NewServeMux()

	// loteria (ex.: /api/lottery/round -> lottery-service /round)
	mux.Handle("/api/lottery/", http.StripPrefix("/api/lottery", lottery))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api/wallet", wallet))

	// chain (ex.: /api/chain/head -> chain-simulator)
	mux.Handle("/api/chain/", http.StripPrefix("/api/chain", chain))

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
