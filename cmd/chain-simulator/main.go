package main

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/shared/config"
	"github.com/radieske/lottery-platform-poc/internal/shared/logger"
	"github.com/radieske/lottery-platform-poc/pkg/contracts/events"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	// Métricas Prometheus para monitoramento de conexões e blocos
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chain_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	blocksProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chain_blocks_produced_total",
		Help: "Total de blocos simulados",
	})
)

// Representa uma conexão de cliente WebSocket
type clientConn struct {
	id   string
	conn *websocket.Conn
}

// hub gerencia os clientes conectados via WebSocket e faz broadcast de blocos.
type hub struct {
	mu      sync.RWMutex
	clients map[string]*clientConn
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: make(map[string]*clientConn),
		log:     log,
	}
}

// Adiciona um novo cliente ao hub e incrementa a métrica de conexões
func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	wsConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id))
}

// Remove um cliente do hub e decrementa a métrica de conexões
func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		wsConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// Envia uma mensagem para todos os clientes conectados
func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg, _ := json.Marshal(v)
	for id, c := range h.clients {
		c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", id), zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

// chainState é a cadeia fake: altura corrente e hash do último bloco.
// O hash de cada bloco deriva do hash anterior, da altura e do timestamp,
// imitando a entropia por bloco que um host real forneceria.
type chainState struct {
	mu     sync.RWMutex
	height uint64
	seed   [32]byte
}

func newChainState(genesis uint64) *chainState {
	s := &chainState{height: genesis}
	s.seed = sha256.Sum256([]byte("genesis"))
	return s
}

func (s *chainState) nextBlock(source string) events.BlockProduced {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := s.seed
	s.height++

	var buf [8 + 8]byte
	binary.BigEndian.PutUint64(buf[:8], s.height)
	binary.BigEndian.PutUint64(buf[8:], uint64(time.Now().UnixNano()))

	h := sha256.New()
	h.Write(parent[:])
	h.Write(buf[:])
	copy(s.seed[:], h.Sum(nil))

	blocksProduced.Inc()
	return events.BlockProduced{
		Height:     s.height,
		Seed:       hex.EncodeToString(s.seed[:]),
		ParentSeed: hex.EncodeToString(parent[:]),
		ProducedAt: time.Now().UTC(),
		Source:     source,
	}
}

func (s *chainState) head() (uint64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height, hex.EncodeToString(s.seed[:])
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(wsConnections, blocksProduced)

	h := newHub(log)
	chain := newChainState(cfg.GenesisHeight)

	// Produz um bloco por período e envia para todos os clientes conectados
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.BlockPeriodMs) * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			block := chain.nextBlock(cfg.ServiceName)
			h.broadcast(block)
		}
	}()

	// ==== MUX PÚBLICO (HTTP principal): /ws e /chain/head
	appMux := http.NewServeMux()

	appMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		id := fmt.Sprintf("%d", time.Now().UnixNano())
		c := &clientConn{id: id, conn: conn}
		h.add(c)

		// Goroutine para manter a conexão viva e remover cliente ao desconectar
		go func() {
			defer func() {
				h.remove(id)
				_ = conn.Close()
			}()
			_ = conn.SetReadDeadline(time.Time{})
			for {
				// Lê e descarta mensagens do cliente para manter o socket limpo
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	appMux.HandleFunc("/chain/head", func(w http.ResponseWriter, r *http.Request) {
		height, seed := chain.head()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"height": height,
			"seed":   seed,
		})
	})

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		addr := ":" + cfg.MetricsPort
		log.Info("metrics/health listening", zap.String("addr", addr))
		_ = http.ListenAndServe(addr, metricsMux)
	}()

	addr := ":" + cfg.HTTPPort
	log.Info("chain-simulator listening",
		zap.String("addr", addr),
		zap.Int("block_period_ms", cfg.BlockPeriodMs),
	)
	if err := http.ListenAndServe(addr, appMux); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}
