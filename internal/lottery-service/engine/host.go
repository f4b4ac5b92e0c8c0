package engine

import "context"

// Conta reservada que custodia o pote da rodada corrente.
const PotAccount = "pot"

// Host é o ambiente de execução (Ledger Host) consumido pelo motor:
// altura corrente, entropia por bloco, movimentação de fundos e eventos.
// Toda mutação de saldo passa por Transfer; o motor nunca toca fundos direto.
type Host interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	EntropySeed(ctx context.Context, height uint64) ([]byte, error)

	// Transfer move amountCents de from para to. externalRef identifica a
	// operação de forma única e permite retry idempotente no lado do host.
	Transfer(ctx context.Context, from, to string, amountCents int64, externalRef string) error

	// Emit publica uma notificação de observabilidade (fire-and-forget).
	Emit(ctx context.Context, event any)
}
