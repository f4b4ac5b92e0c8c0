package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/chain"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/producer"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/wallet"
	"github.com/radieske/lottery-platform-poc/pkg/contracts/events"
)

// Adapter implementa engine.Host sobre a infra real: altura e entropia vêm do
// chain head no Redis, fundos passam pelo wallet-service e notificações vão
// para o Kafka.
type Adapter struct {
	Log    *zap.Logger
	Wallet *wallet.Client
	Heads  *chain.HeadCache
	Publ   *producer.KafkaPublisher
}

func NewAdapter(log *zap.Logger, w *wallet.Client, h *chain.HeadCache, p *producer.KafkaPublisher) *Adapter {
	return &Adapter{Log: log, Wallet: w, Heads: h, Publ: p}
}

func (a *Adapter) CurrentHeight(ctx context.Context) (uint64, error) {
	head, err := a.Heads.Get(ctx)
	if err != nil {
		return 0, err
	}
	return head.Height, nil
}

func (a *Adapter) EntropySeed(ctx context.Context, height uint64) ([]byte, error) {
	head, err := a.Heads.Get(ctx)
	if err != nil {
		return nil, err
	}
	// só o head corrente fica em cache; alturas antigas chegam pelo draw-worker
	if head.Height != height {
		return nil, fmt.Errorf("no seed cached for height %d (head is %d)", height, head.Height)
	}
	return head.SeedBytes()
}

// Transfer roteia a movimentação conforme o lado do pote:
// usuário -> pote: reserva + commit da stake na carteira;
// pote -> usuário: crédito de prêmio idempotente por externalRef.
func (a *Adapter) Transfer(ctx context.Context, from, to string, amountCents int64, externalRef string) error {
	switch {
	case to == engine.PotAccount:
		if _, err := a.Wallet.Reserve(ctx, from, amountCents, externalRef); err != nil {
			return fmt.Errorf("reserve stake: %w", err)
		}
		if err := a.Wallet.Commit(ctx, from, externalRef); err != nil {
			// devolve o bloqueio; se o estorno também falhar, a reserva
			// pendente fica para reconciliação manual
			if rerr := a.Wallet.Refund(ctx, from, externalRef); rerr != nil {
				a.Log.Error("refund after failed commit", zap.String("ref", externalRef), zap.Error(rerr))
			}
			return fmt.Errorf("commit stake: %w", err)
		}
		return nil
	case from == engine.PotAccount:
		if _, err := a.Wallet.Payout(ctx, to, amountCents, externalRef); err != nil {
			return fmt.Errorf("payout: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported transfer %s -> %s", from, to)
	}
}

// Emit traduz as notificações do motor para os contratos Kafka. Falha de
// publicação não derruba a operação que a originou.
func (a *Adapter) Emit(ctx context.Context, event any) {
	var err error
	switch e := event.(type) {
	case engine.BetPlacedEvent:
		err = a.Publ.PublishBetPlaced(ctx, events.BetPlaced{
			BetID:      e.Bet.ID,
			RoundID:    e.RoundID,
			Owner:      e.Bet.Owner,
			Numbers:    e.Bet.Numbers.Ints(),
			StakeCents: e.Bet.StakeCents,
			Height:     e.Bet.Height,
			PotCents:   e.PotCents,
		})
	case engine.DrawCompletedEvent:
		err = a.Publ.PublishDrawCompleted(ctx, events.DrawCompleted{
			RoundID:  e.RoundID,
			Height:   e.Height,
			Outcome:  e.Outcome.Ints(),
			Winners:  winnerRefs(e.Winners),
			PotCents: e.PotCents,
		})
	case engine.RoundSettledEvent:
		err = a.Publ.PublishRoundSettled(ctx, events.RoundSettled{
			RoundID:     e.RoundID,
			Height:      e.Height,
			Outcome:     e.Outcome.Ints(),
			Payouts:     winnerRefs(e.Payouts),
			PotCents:    e.PotCents,
			NextRoundID: e.NextRoundID,
		})
	default:
		a.Log.Warn("unknown engine event", zap.Any("event", event))
		return
	}
	if err != nil {
		a.Log.Warn("event publish failed", zap.Error(err))
	}
}

func winnerRefs(payouts []engine.Payout) []events.WinnerRef {
	if len(payouts) == 0 {
		return nil
	}
	out := make([]events.WinnerRef, len(payouts))
	for i, p := range payouts {
		out[i] = events.WinnerRef{
			BetID:       p.BetID,
			Owner:       p.Owner,
			StakeCents:  p.StakeCents,
			PayoutCents: p.AmountCents,
		}
	}
	return out
}
