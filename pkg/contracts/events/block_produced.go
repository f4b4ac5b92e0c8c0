package events

import "time"

// Evento publicado no tópico "block_produced" pelo chain-ingest-service.
// Seed é o hash do bloco em hex, usado como fonte de entropia do sorteio.
type BlockProduced struct {
	Height     uint64    `json:"height"`
	Seed       string    `json:"seed"`
	ParentSeed string    `json:"parent_seed,omitempty"`
	ProducedAt time.Time `json:"produced_at"`
	Source     string    `json:"source"` // "chain-simulator"
}
