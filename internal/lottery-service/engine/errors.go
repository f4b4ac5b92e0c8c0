package engine

import "errors"

var (
	// Erros de validação: rejeitados antes de qualquer mutação de estado.
	ErrInvalidNumbers = errors.New("invalid numbers: sequence must have exactly 3 values in [0,255]")
	ErrInvalidStake   = errors.New("invalid stake")
	ErrRoundNotOpen   = errors.New("round not open")
	ErrTooEarly       = errors.New("too early to draw")

	// Erros de movimentação de fundos no host.
	ErrTransferFailed = errors.New("transfer failed")
	ErrPartialPayout  = errors.New("partial payout failure")

	ErrNoPendingSettlement = errors.New("no pending settlement")
)
