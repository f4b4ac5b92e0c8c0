package dto

type ReserveResponse struct {
	ReservationID string `json:"reservationId"`
	Status        string `json:"status"`
}

type PayoutResponse struct {
	PayoutID string `json:"payoutId"`
	Status   string `json:"status"`
}
