package events

type BetPlaced struct {
	BetID      string `json:"bet_id"`
	RoundID    string `json:"round_id"`
	Owner      string `json:"owner"`
	Numbers    [3]int `json:"numbers"`
	StakeCents int64  `json:"stake_cents"`
	Height     uint64 `json:"height"` // altura do bloco no momento da aposta
	PotCents   int64  `json:"pot_cents"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
