package topics

const (
	// Blocos do host (chain-simulator -> chain-ingest -> draw-worker)
	BlockProduced = "block_produced"

	// Loteria
	BetPlaced     = "bet_placed"
	DrawCompleted = "draw_completed"
	RoundSettled  = "round_settled"

	// DLQs
	BlockProducedDLQ = "block_produced_dlq"
)
