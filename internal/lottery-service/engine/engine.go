package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

type Config struct {
	DrawIntervalBlocks uint64
	MinStakeCents      int64
	GenesisHeight      uint64
}

// Engine é o núcleo da loteria: registro de apostas, gatilho de sorteio e
// máquina de estados de liquidação. O host serializa as chamadas externas;
// o mutex aqui materializa essa garantia dentro de um processo HTTP.
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	host Host

	round       Round
	lastOutcome *[3]int

	// plano de pagamento retido enquanto uma liquidação não drena por completo
	pending     []Payout
	pendingAt   uint64
	pendingOutc rng.Outcome
}

// New cria o motor com uma rodada OPEN no genesis.
func New(cfg Config, host Host) *Engine {
	if cfg.DrawIntervalBlocks == 0 {
		cfg.DrawIntervalBlocks = 10
	}
	return &Engine{
		cfg:  cfg,
		host: host,
		round: Round{
			ID:             uuid.NewString(),
			State:          StateOpen,
			LastDrawHeight: cfg.GenesisHeight,
			CreatedAt:      time.Now(),
		},
	}
}

// PendingSettlement é o plano de pagamento retido de uma liquidação que não
// drenou por completo, com o progresso parcela a parcela. É o que precisa
// sobreviver a um reinício junto com a rodada.
type PendingSettlement struct {
	Payouts []Payout
	Height  uint64
	Outcome rng.Outcome
}

// Restore recria o motor a partir de uma rodada persistida (boot do serviço).
// Uma rodada em DRAWING com plano pendente retoma a liquidação de onde parou,
// preservando as parcelas já pagas. Sem plano persistido, volta para OPEN:
// o sorteio interrompido não chegou a transferir fundos.
func Restore(cfg Config, host Host, round Round, pending *PendingSettlement) *Engine {
	e := New(cfg, host)
	if round.State == StateDrawing {
		if pending != nil && len(pending.Payouts) > 0 {
			e.pending = make([]Payout, len(pending.Payouts))
			copy(e.pending, pending.Payouts)
			e.pendingAt = pending.Height
			e.pendingOutc = pending.Outcome
		} else {
			round.State = StateOpen
		}
	}
	if round.ID != "" {
		e.round = round
	}
	return e
}

// PendingSettlement expõe o plano pendente para persistência; ok=false quando
// não há liquidação em andamento.
func (e *Engine) PendingSettlement() (PendingSettlement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round.State != StateDrawing || len(e.pending) == 0 {
		return PendingSettlement{}, false
	}
	ps := PendingSettlement{
		Payouts: make([]Payout, len(e.pending)),
		Height:  e.pendingAt,
		Outcome: e.pendingOutc,
	}
	copy(ps.Payouts, e.pending)
	return ps, true
}

// PlaceBet valida e registra uma aposta, recolhendo a stake via host.
// Tudo ou nada: transferência falhou, nada entra no livro.
func (e *Engine) PlaceBet(ctx context.Context, owner string, numbers []int, stakeCents int64) (Bet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := validateNumbers(numbers); err != nil {
		return Bet{}, err
	}
	if stakeCents <= 0 || stakeCents < e.cfg.MinStakeCents {
		return Bet{}, fmt.Errorf("%w: minimum is %d cents", ErrInvalidStake, e.cfg.MinStakeCents)
	}
	if e.round.State != StateOpen {
		return Bet{}, ErrRoundNotOpen
	}

	height, err := e.host.CurrentHeight(ctx)
	if err != nil {
		return Bet{}, fmt.Errorf("current height: %w", err)
	}

	bet := Bet{
		ID:         uuid.NewString(),
		Owner:      owner,
		Numbers:    rng.Outcome{uint8(numbers[0]), uint8(numbers[1]), uint8(numbers[2])},
		StakeCents: stakeCents,
		Height:     height,
		CreatedAt:  time.Now(),
	}

	if err := e.host.Transfer(ctx, owner, PotAccount, stakeCents, "stake:"+bet.ID); err != nil {
		return Bet{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.round.Bets = append(e.round.Bets, bet)
	e.round.PotCents += stakeCents

	e.host.Emit(ctx, BetPlacedEvent{RoundID: e.round.ID, Bet: bet, PotCents: e.round.PotCents})

	return bet, nil
}

// ListBets retorna as apostas da rodada corrente em ordem de submissão.
func (e *Engine) ListBets() []Bet {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Bet, len(e.round.Bets))
	copy(out, e.round.Bets)
	return out
}

// Status retorna o snapshot da rodada corrente.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		RoundID:        e.round.ID,
		State:          e.round.State,
		PotCents:       e.round.PotCents,
		LastDrawHeight: e.round.LastDrawHeight,
		BetCount:       len(e.round.Bets),
		DrawInterval:   e.cfg.DrawIntervalBlocks,
		LastOutcome:    e.lastOutcome,
	}
}

// Snapshot devolve uma cópia da rodada corrente para persistência.
func (e *Engine) Snapshot() Round {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.round
	r.Bets = make([]Bet, len(e.round.Bets))
	copy(r.Bets, e.round.Bets)
	return r
}

func validateNumbers(numbers []int) error {
	if len(numbers) != 3 {
		return ErrInvalidNumbers
	}
	for _, n := range numbers {
		if n < 0 || n > 255 {
			return ErrInvalidNumbers
		}
	}
	return nil
}
