package engine

import (
	"time"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

type State string

const (
	StateOpen    State = "OPEN"
	StateDrawing State = "DRAWING"
	StateSettled State = "SETTLED"
)

// Bet é imutável depois de registrada; some apenas quando a rodada liquida.
type Bet struct {
	ID         string
	Owner      string
	Numbers    rng.Outcome // ordem importa: [1,2,3] != [3,2,1]
	StakeCents int64
	Height     uint64 // altura do bloco no momento da aposta
	CreatedAt  time.Time
}

// Round é a rodada viva: existe exatamente uma por vez, criada no genesis ou
// imediatamente após a liquidação da anterior.
type Round struct {
	ID             string
	State          State
	PotCents       int64
	LastDrawHeight uint64
	Bets           []Bet
	CreatedAt      time.Time
}

// Payout é uma parcela do plano de pagamento de uma liquidação.
type Payout struct {
	BetID       string
	Owner       string
	StakeCents  int64
	AmountCents int64
	ExternalRef string
	Paid        bool
}

// Status é o snapshot read-only exposto em GET /round.
type Status struct {
	RoundID        string
	State          State
	PotCents       int64
	LastDrawHeight uint64
	BetCount       int
	DrawInterval   uint64
	LastOutcome    *[3]int // nil antes do primeiro sorteio
}

type DrawStatus string

const (
	DrawNoWinner      DrawStatus = "NO_WINNER"
	DrawSettled       DrawStatus = "SETTLED"
	DrawPayoutPending DrawStatus = "PAYOUT_PENDING"
)

// DrawResult descreve o desfecho de uma tentativa de sorteio.
type DrawResult struct {
	RoundID string
	Status  DrawStatus
	Height  uint64
	Outcome rng.Outcome
	Winners []Payout
}
