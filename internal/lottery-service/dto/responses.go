package dto

type PlaceBetResponse struct {
	BetID    string `json:"betId"`
	RoundID  string `json:"roundId"`
	Height   uint64 `json:"height"`
	PotCents int64  `json:"pot_cents"`
	Status   string `json:"status"`
}

type RoundStatusResponse struct {
	RoundID        string  `json:"roundId"`
	State          string  `json:"state"`
	PotCents       int64   `json:"pot_cents"`
	LastDrawHeight uint64  `json:"last_draw_height"`
	BetCount       int     `json:"bet_count"`
	DrawInterval   uint64  `json:"draw_interval"`
	LastOutcome    *[3]int `json:"last_outcome,omitempty"`
}

type BetResponse struct {
	BetID      string `json:"betId"`
	Owner      string `json:"owner"`
	Numbers    [3]int `json:"numbers"`
	StakeCents int64  `json:"stake_cents"`
	Height     uint64 `json:"height"`
}

type PayoutResponse struct {
	BetID       string `json:"betId"`
	Owner       string `json:"owner"`
	StakeCents  int64  `json:"stake_cents"`
	AmountCents int64  `json:"amount_cents"`
	Paid        bool   `json:"paid"`
}

type DrawResponse struct {
	RoundID string           `json:"roundId"`
	Status  string           `json:"status"` // TOO_EARLY | NO_WINNER | SETTLED | PAYOUT_PENDING
	Height  uint64           `json:"height,omitempty"`
	Outcome *[3]int          `json:"outcome,omitempty"`
	Winners []PayoutResponse `json:"winners,omitempty"`
}
