package dto

type PlaceBetRequest struct {
	Owner      string `json:"owner"`
	Numbers    []int  `json:"numbers"` // exatamente 3 valores em [0,255]
	StakeCents int64  `json:"stake_cents"`
}

// TriggerDrawRequest é o payload interno enviado pelo draw-worker por bloco.
type TriggerDrawRequest struct {
	Height uint64 `json:"height"`
	Seed   string `json:"seed"` // entropia do bloco em hex
}
