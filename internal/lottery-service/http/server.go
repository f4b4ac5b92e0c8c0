package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/cache"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/dto"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/repo"
)

var (
	betsPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lottery_bets_placed_total",
		Help: "Apostas aceitas",
	})
	betsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lottery_bets_rejected_total",
		Help: "Apostas rejeitadas por motivo",
	}, []string{"reason"})
	drawResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lottery_draw_attempts_total",
		Help: "Tentativas de sorteio por resultado",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(betsPlaced, betsRejected, drawResults)
}

type Server struct {
	log    *zap.Logger
	engine *engine.Engine
	repo   *repo.Postgres
	rcache *cache.RoundCache
}

func NewServer(log *zap.Logger, e *engine.Engine, r *repo.Postgres, c *cache.RoundCache) *Server {
	return &Server{log: log, engine: e, repo: r, rcache: c}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.placeBet)              // POST
	mux.HandleFunc("/round", s.getRound)             // GET
	mux.HandleFunc("/round/bets", s.listBets)        // GET
	mux.HandleFunc("/internal/draws", s.triggerDraw) // POST (draw-worker)
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Owner == "" {
		http.Error(w, "owner required", http.StatusBadRequest)
		return
	}

	bet, err := s.engine.PlaceBet(r.Context(), req.Owner, req.Numbers, req.StakeCents)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidNumbers):
			betsRejected.WithLabelValues("invalid_numbers").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, engine.ErrInvalidStake):
			betsRejected.WithLabelValues("invalid_stake").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, engine.ErrRoundNotOpen):
			betsRejected.WithLabelValues("round_not_open").Inc()
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, engine.ErrTransferFailed):
			betsRejected.WithLabelValues("transfer_failed").Inc()
			http.Error(w, "stake transfer failed", http.StatusConflict)
		default:
			betsRejected.WithLabelValues("internal").Inc()
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		}
		return
	}
	betsPlaced.Inc()

	st := s.engine.Status()
	s.persistAfterBet(r.Context(), bet, st)

	writeJSON(w, dto.PlaceBetResponse{
		BetID:    bet.ID,
		RoundID:  st.RoundID,
		Height:   bet.Height,
		PotCents: st.PotCents,
		Status:   "ACCEPTED",
	})
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, statusResponse(s.engine.Status()))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	bets := s.engine.ListBets()
	out := make([]dto.BetResponse, len(bets))
	for i, b := range bets {
		out[i] = dto.BetResponse{
			BetID:      b.ID,
			Owner:      b.Owner,
			Numbers:    b.Numbers.Ints(),
			StakeCents: b.StakeCents,
			Height:     b.Height,
		}
	}
	writeJSON(w, out)
}

// triggerDraw é chamado pelo draw-worker a cada bloco produzido.
func (s *Server) triggerDraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.TriggerDrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	seed, err := hex.DecodeString(req.Seed)
	if err != nil || len(seed) == 0 {
		http.Error(w, "invalid seed", http.StatusBadRequest)
		return
	}

	res, err := s.engine.AttemptDrawAt(r.Context(), req.Height, seed)
	if errors.Is(err, engine.ErrRoundNotOpen) {
		// rodada presa em DRAWING: drena os pagamentos pendentes
		res, err = s.engine.RetrySettlement(r.Context())
		if errors.Is(err, engine.ErrNoPendingSettlement) {
			http.Error(w, "round not open", http.StatusConflict)
			return
		}
	}

	switch {
	case err == nil:
		drawResults.WithLabelValues(string(res.Status)).Inc()
		s.persistAfterDraw(r.Context(), res)
		writeJSON(w, drawResponse(res))
	case errors.Is(err, engine.ErrTooEarly):
		drawResults.WithLabelValues("too_early").Inc()
		writeJSON(w, dto.DrawResponse{RoundID: s.engine.Status().RoundID, Status: "TOO_EARLY"})
	case errors.Is(err, engine.ErrPartialPayout):
		drawResults.WithLabelValues("payout_pending").Inc()
		s.log.Error("settlement incomplete", zap.Error(err))
		s.persistAfterDraw(r.Context(), res)
		w.WriteHeader(http.StatusBadGateway)
		writeJSON(w, drawResponse(res))
	default:
		drawResults.WithLabelValues("error").Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// persistAfterBet grava aposta e rodada; trilha de auditoria é best-effort,
// o estado autoritativo já está no motor.
func (s *Server) persistAfterBet(ctx context.Context, bet engine.Bet, st engine.Status) {
	snap := s.engine.Snapshot()
	if err := s.repo.UpsertRound(ctx, snap); err != nil {
		s.log.Warn("round upsert", zap.Error(err))
	}
	if err := s.repo.InsertBet(ctx, snap.ID, bet); err != nil {
		s.log.Warn("bet insert", zap.Error(err))
	}
	if err := s.rcache.SetCurrent(ctx, statusResponse(st)); err != nil {
		s.log.Warn("round cache set", zap.Error(err))
	}
}

func (s *Server) persistAfterDraw(ctx context.Context, res engine.DrawResult) {
	switch res.Status {
	case engine.DrawSettled:
		if err := s.repo.MarkRoundSettled(ctx, res.RoundID, res.Height, res.Outcome, res.Winners); err != nil {
			s.log.Warn("round settle persist", zap.Error(err))
		}
	case engine.DrawPayoutPending:
		// o plano com as parcelas já pagas precisa sobreviver a um reinício,
		// senão a recuperação reabre a rodada com o pote inteiro
		if err := s.repo.SavePendingPayouts(ctx, res.RoundID, res.Height, res.Outcome, res.Winners); err != nil {
			s.log.Error("pending payouts persist", zap.Error(err))
		}
	}
	snap := s.engine.Snapshot()
	if err := s.repo.UpsertRound(ctx, snap); err != nil {
		s.log.Warn("round upsert", zap.Error(err))
	}
	if err := s.rcache.SetCurrent(ctx, statusResponse(s.engine.Status())); err != nil {
		s.log.Warn("round cache set", zap.Error(err))
	}
}

func statusResponse(st engine.Status) dto.RoundStatusResponse {
	return dto.RoundStatusResponse{
		RoundID:        st.RoundID,
		State:          string(st.State),
		PotCents:       st.PotCents,
		LastDrawHeight: st.LastDrawHeight,
		BetCount:       st.BetCount,
		DrawInterval:   st.DrawInterval,
		LastOutcome:    st.LastOutcome,
	}
}

func drawResponse(res engine.DrawResult) dto.DrawResponse {
	outcome := res.Outcome.Ints()
	winners := make([]dto.PayoutResponse, len(res.Winners))
	for i, p := range res.Winners {
		winners[i] = dto.PayoutResponse{
			BetID:       p.BetID,
			Owner:       p.Owner,
			StakeCents:  p.StakeCents,
			AmountCents: p.AmountCents,
			Paid:        p.Paid,
		}
	}
	return dto.DrawResponse{
		RoundID: res.RoundID,
		Status:  string(res.Status),
		Height:  res.Height,
		Outcome: &outcome,
		Winners: winners,
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
