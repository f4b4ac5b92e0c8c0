package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

// AttemptDraw busca altura e entropia no host e tenta um sorteio.
func (e *Engine) AttemptDraw(ctx context.Context) (DrawResult, error) {
	height, err := e.host.CurrentHeight(ctx)
	if err != nil {
		return DrawResult{}, fmt.Errorf("current height: %w", err)
	}
	seed, err := e.host.EntropySeed(ctx, height)
	if err != nil {
		return DrawResult{}, fmt.Errorf("entropy seed: %w", err)
	}
	return e.AttemptDrawAt(ctx, height, seed)
}

// AttemptDrawAt tenta um sorteio com altura e entropia já resolvidas.
// Falha com ErrTooEarly antes do intervalo e sem nenhuma mutação de estado.
func (e *Engine) AttemptDrawAt(ctx context.Context, height uint64, seed []byte) (DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round.State != StateOpen {
		// liquidação anterior ainda pendente; ver RetrySettlement
		return DrawResult{}, ErrRoundNotOpen
	}
	if height < e.round.LastDrawHeight || height-e.round.LastDrawHeight < e.cfg.DrawIntervalBlocks {
		return DrawResult{}, fmt.Errorf("%w: height %d, last draw %d, interval %d",
			ErrTooEarly, height, e.round.LastDrawHeight, e.cfg.DrawIntervalBlocks)
	}

	// guarda de reentrância: nenhuma aposta entra enquanto o sorteio resolve
	e.round.State = StateDrawing

	outcome, err := rng.DeriveOutcome(seed, height)
	if err != nil {
		e.round.State = StateOpen
		return DrawResult{}, fmt.Errorf("derive outcome: %w", err)
	}

	ints := outcome.Ints()
	e.lastOutcome = &ints

	// varredura em ordem de submissão; igualdade elemento a elemento
	var winners []Bet
	for _, b := range e.round.Bets {
		if b.Numbers == outcome {
			winners = append(winners, b)
		}
	}

	if len(winners) == 0 {
		// ninguém acertou: pote e apostas seguem para o próximo sorteio
		e.round.LastDrawHeight = height
		e.round.State = StateOpen
		e.host.Emit(ctx, DrawCompletedEvent{
			RoundID:  e.round.ID,
			Height:   height,
			Outcome:  outcome,
			PotCents: e.round.PotCents,
		})
		return DrawResult{
			RoundID: e.round.ID,
			Status:  DrawNoWinner,
			Height:  height,
			Outcome: outcome,
		}, nil
	}

	plan := computePayouts(e.round.ID, e.round.PotCents, winners)

	e.host.Emit(ctx, DrawCompletedEvent{
		RoundID:  e.round.ID,
		Height:   height,
		Outcome:  outcome,
		Winners:  plan,
		PotCents: e.round.PotCents,
	})

	e.pending = plan
	e.pendingAt = height
	e.pendingOutc = outcome

	return e.settleLocked(ctx)
}

// RetrySettlement reexecuta apenas as parcelas não pagas de uma liquidação
// que falhou no meio. Idempotente: cada parcela carrega seu externalRef.
func (e *Engine) RetrySettlement(ctx context.Context) (DrawResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.round.State != StateDrawing || len(e.pending) == 0 {
		return DrawResult{}, ErrNoPendingSettlement
	}
	return e.settleLocked(ctx)
}

// settleLocked executa o plano de pagamento pendente. Só limpa o livro e
// reabre a rodada depois que todas as transferências confirmam.
func (e *Engine) settleLocked(ctx context.Context) (DrawResult, error) {
	for i := range e.pending {
		if e.pending[i].Paid {
			continue
		}
		p := e.pending[i]
		if err := e.host.Transfer(ctx, PotAccount, p.Owner, p.AmountCents, p.ExternalRef); err != nil {
			return DrawResult{
				RoundID: e.round.ID,
				Status:  DrawPayoutPending,
				Height:  e.pendingAt,
				Outcome: e.pendingOutc,
				Winners: e.pending,
			}, fmt.Errorf("%w: %s: %v", ErrPartialPayout, p.ExternalRef, err)
		}
		e.pending[i].Paid = true
	}

	settled := DrawResult{
		RoundID: e.round.ID,
		Status:  DrawSettled,
		Height:  e.pendingAt,
		Outcome: e.pendingOutc,
		Winners: e.pending,
	}

	// liquidação completa: zera pote, limpa apostas e abre rodada nova
	e.round.State = StateSettled
	next := Round{
		ID:             uuid.NewString(),
		State:          StateOpen,
		LastDrawHeight: e.pendingAt,
		CreatedAt:      time.Now(),
	}

	e.host.Emit(ctx, RoundSettledEvent{
		RoundID:     e.round.ID,
		Height:      e.pendingAt,
		Outcome:     e.pendingOutc,
		Payouts:     e.pending,
		PotCents:    e.round.PotCents,
		NextRoundID: next.ID,
	})

	e.round = next
	e.pending = nil

	return settled, nil
}

// computePayouts reparte o pote proporcionalmente à stake de cada vencedor,
// em aritmética inteira. O resto da divisão vai para o vencedor mais antigo,
// então nenhum centavo se perde. O produto pote*stake passa por big.Int porque
// pode estourar int64 antes da divisão.
func computePayouts(roundID string, potCents int64, winners []Bet) []Payout {
	var totalStake int64
	for _, w := range winners {
		totalStake += w.StakeCents
	}

	pot := big.NewInt(potCents)
	total := big.NewInt(totalStake)

	plan := make([]Payout, len(winners))
	var distributed int64
	for i, w := range winners {
		share := new(big.Int).Mul(pot, big.NewInt(w.StakeCents))
		amount := share.Div(share, total).Int64()
		distributed += amount
		plan[i] = Payout{
			BetID:       w.ID,
			Owner:       w.Owner,
			StakeCents:  w.StakeCents,
			AmountCents: amount,
			ExternalRef: "payout:" + roundID + ":" + w.ID,
		}
	}

	if rem := potCents - distributed; rem > 0 {
		plan[0].AmountCents += rem
	}

	return plan
}
