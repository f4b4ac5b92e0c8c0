package events

import "time"

// Evento emitido quando uma rodada é liquidada por completo: todos os pagamentos
// confirmados, apostas limpas e nova rodada aberta.
type RoundSettled struct {
	RoundID     string      `json:"round_id"`
	Height      uint64      `json:"height"`
	Outcome     [3]int      `json:"outcome"`
	Payouts     []WinnerRef `json:"payouts"`
	PotCents    int64       `json:"pot_cents"`
	NextRoundID string      `json:"next_round_id"`
	Ts          time.Time   `json:"ts"`
}
