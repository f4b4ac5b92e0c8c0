package repo

import (
	"context"
	"database/sql"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

// Postgres implementa a trilha de auditoria da loteria em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório da loteria
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// UpsertRound grava o estado corrente da rodada
func (p *Postgres) UpsertRound(ctx context.Context, r engine.Round) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rounds (id, state, pot_cents, last_draw_height, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
		  state            = EXCLUDED.state,
		  pot_cents        = EXCLUDED.pot_cents,
		  last_draw_height = EXCLUDED.last_draw_height`,
		r.ID, string(r.State), r.PotCents, r.LastDrawHeight, r.CreatedAt,
	)
	return err
}

// InsertBet registra uma aposta aceita
func (p *Postgres) InsertBet(ctx context.Context, roundID string, b engine.Bet) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id, round_id, owner, n1, n2, n3, stake_cents, height, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, roundID, b.Owner, b.Numbers[0], b.Numbers[1], b.Numbers[2],
		b.StakeCents, b.Height, b.CreatedAt,
	)
	return err
}

// MarkRoundSettled fecha a rodada e arquiva os pagamentos executados.
// Parcelas já gravadas por SavePendingPayouts viram paid=true
func (p *Postgres) MarkRoundSettled(ctx context.Context, roundID string, height uint64, outcome rng.Outcome, payouts []engine.Payout) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`UPDATE rounds SET state='SETTLED', settled_at=NOW() WHERE id=$1`, roundID); err != nil {
		return err
	}

	for _, po := range payouts {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payouts (round_id, bet_id, owner, stake_cents, amount_cents, external_ref, draw_height, n1, n2, n3, paid)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,TRUE)
			ON CONFLICT (external_ref) DO UPDATE SET paid = TRUE`,
			roundID, po.BetID, po.Owner, po.StakeCents, po.AmountCents, po.ExternalRef,
			height, outcome[0], outcome[1], outcome[2]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SavePendingPayouts grava o plano de pagamento de uma liquidação incompleta,
// parcela a parcela com seu progresso, para retomada após reinício.
// Idempotente por external_ref: só o flag paid avança em regravações
func (p *Postgres) SavePendingPayouts(ctx context.Context, roundID string, height uint64, outcome rng.Outcome, payouts []engine.Payout) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, po := range payouts {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO payouts (round_id, bet_id, owner, stake_cents, amount_cents, external_ref, draw_height, n1, n2, n3, paid)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (external_ref) DO UPDATE SET paid = EXCLUDED.paid`,
			roundID, po.BetID, po.Owner, po.StakeCents, po.AmountCents, po.ExternalRef,
			height, outcome[0], outcome[1], outcome[2], po.Paid); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadPendingPayouts recarrega o plano pendente de uma rodada presa em DRAWING;
// nil quando não há plano gravado (o sorteio caiu antes de qualquer transferência)
func (p *Postgres) LoadPendingPayouts(ctx context.Context, roundID string) (*engine.PendingSettlement, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT bet_id, owner, stake_cents, amount_cents, external_ref, paid, draw_height, n1, n2, n3
		FROM payouts WHERE round_id=$1 ORDER BY id`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ps engine.PendingSettlement
	for rows.Next() {
		var po engine.Payout
		var n1, n2, n3 int16
		if err := rows.Scan(&po.BetID, &po.Owner, &po.StakeCents, &po.AmountCents,
			&po.ExternalRef, &po.Paid, &ps.Height, &n1, &n2, &n3); err != nil {
			return nil, err
		}
		ps.Outcome = rng.Outcome{uint8(n1), uint8(n2), uint8(n3)}
		ps.Payouts = append(ps.Payouts, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ps.Payouts) == 0 {
		return nil, nil
	}

	return &ps, nil
}

// LoadCurrentRound recarrega a rodada não liquidada mais recente e suas
// apostas em ordem de submissão; ok=false quando não há rodada a retomar
func (p *Postgres) LoadCurrentRound(ctx context.Context) (engine.Round, bool, error) {
	var r engine.Round
	var state string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, state, pot_cents, last_draw_height, created_at
		FROM rounds WHERE state <> 'SETTLED'
		ORDER BY created_at DESC LIMIT 1`).
		Scan(&r.ID, &state, &r.PotCents, &r.LastDrawHeight, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return r, false, nil
	}
	if err != nil {
		return r, false, err
	}
	r.State = engine.State(state)

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner, n1, n2, n3, stake_cents, height, created_at
		FROM bets WHERE round_id=$1 ORDER BY created_at, id`, r.ID)
	if err != nil {
		return r, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var b engine.Bet
		var n1, n2, n3 int16
		if err := rows.Scan(&b.ID, &b.Owner, &n1, &n2, &n3, &b.StakeCents, &b.Height, &b.CreatedAt); err != nil {
			return r, false, err
		}
		b.Numbers = rng.Outcome{uint8(n1), uint8(n2), uint8(n3)}
		r.Bets = append(r.Bets, b)
	}
	if err := rows.Err(); err != nil {
		return r, false, err
	}

	return r, true, nil
}
