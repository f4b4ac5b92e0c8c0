package events

import "time"

// Evento emitido pelo lottery-service após cada tentativa de sorteio concluída.
// Winners vem vazio quando ninguém acertou a sequência.
type DrawCompleted struct {
	RoundID  string      `json:"round_id"`
	Height   uint64      `json:"height"`
	Outcome  [3]int      `json:"outcome"`
	Winners  []WinnerRef `json:"winners,omitempty"`
	PotCents int64       `json:"pot_cents"`
	Ts       time.Time   `json:"ts"`
}

type WinnerRef struct {
	BetID       string `json:"bet_id"`
	Owner       string `json:"owner"`
	StakeCents  int64  `json:"stake_cents"`
	PayoutCents int64  `json:"payout_cents"`
}
