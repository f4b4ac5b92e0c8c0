package engine

import "github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"

// Notificações emitidas via Host.Emit. O adaptador do host decide o destino
// (Kafka, log, descarte); o motor só descreve o que aconteceu.

type BetPlacedEvent struct {
	RoundID  string
	Bet      Bet
	PotCents int64
}

type DrawCompletedEvent struct {
	RoundID  string
	Height   uint64
	Outcome  rng.Outcome
	Winners  []Payout
	PotCents int64
}

type RoundSettledEvent struct {
	RoundID     string
	Height      uint64
	Outcome     rng.Outcome
	Payouts     []Payout
	PotCents    int64
	NextRoundID string
}
