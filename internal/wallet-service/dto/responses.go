package dto

type WalletResponse struct {
	UserID       string `json:"userId"`
	WalletID     string `json:"walletId"`
	BalanceCents int64  `json:"balance_cents"`
}

type ReservationResponse struct {
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
}

type PayoutResponse struct {
	PayoutID string `json:"payoutId"`
	Status   string `json:"status"`
}
