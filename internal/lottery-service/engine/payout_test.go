package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

// failNPayoutsHost falha as primeiras n transferências de pagamento.
type failNPayoutsHost struct {
	*fakeHost
	remaining int
}

func (h *failNPayoutsHost) Transfer(ctx context.Context, from, to string, amountCents int64, externalRef string) error {
	if strings.HasPrefix(externalRef, "payout:") && h.remaining > 0 {
		h.remaining--
		return errors.New("wallet unavailable")
	}
	return h.fakeHost.Transfer(ctx, from, to, amountCents, externalRef)
}

func TestProportionalSplitAmongWinners(t *testing.T) {
	seed := []byte("split-seed")
	host := newFakeHost(1, seed)
	e := engine.New(defaultConfig(), host)

	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()

	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "bob", numbers[:], 300); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.Status != engine.DrawSettled {
		t.Fatalf("expected SETTLED, got %s", res.Status)
	}
	if len(res.Winners) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(res.Winners))
	}
	if res.Winners[0].AmountCents != 100 || res.Winners[1].AmountCents != 300 {
		t.Errorf("pot of 400 should split 100/300, got %d/%d",
			res.Winners[0].AmountCents, res.Winners[1].AmountCents)
	}
	if host.balances[engine.PotAccount] != 0 {
		t.Errorf("no dust may stay in the pot, got %d", host.balances[engine.PotAccount])
	}
}

func TestSplitRemainderGoesToEarliestWinner(t *testing.T) {
	seed := []byte("dust-seed")
	host := newFakeHost(1, seed)
	e := engine.New(defaultConfig(), host)

	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()
	losing := numbers
	losing[1] = (losing[1] + 7) % 256

	// pote de 400; stakes vencedoras 100 e 200 não dividem 400 exatamente
	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "bob", numbers[:], 200); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "carol", losing[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}

	var total int64
	for _, w := range res.Winners {
		total += w.AmountCents
	}
	if total != 400 {
		t.Errorf("payouts must drain the whole pot, distributed %d of 400", total)
	}
	// 400*100/300 = 133 e 400*200/300 = 266; o resto de 1 vai para alice
	if res.Winners[0].Owner != "alice" || res.Winners[0].AmountCents != 134 {
		t.Errorf("earliest winner should absorb the remainder, got %+v", res.Winners[0])
	}
	if res.Winners[1].AmountCents != 266 {
		t.Errorf("bob should receive 266, got %d", res.Winners[1].AmountCents)
	}
}

func TestPartialPayoutKeepsRoundDrawingAndRetries(t *testing.T) {
	seed := []byte("retry-seed")
	host := &failNPayoutsHost{fakeHost: newFakeHost(1, seed), remaining: 1}
	e := engine.New(defaultConfig(), host)

	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()

	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "bob", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if !errors.Is(err, engine.ErrPartialPayout) {
		t.Fatalf("expected ErrPartialPayout, got %v", err)
	}
	if res.Status != engine.DrawPayoutPending {
		t.Fatalf("expected PAYOUT_PENDING, got %s", res.Status)
	}

	// rodada presa em DRAWING: apostas novas são rejeitadas
	if _, err := e.PlaceBet(context.Background(), "carol", []int{9, 9, 9}, 100); !errors.Is(err, engine.ErrRoundNotOpen) {
		t.Errorf("bets during settlement must fail with ErrRoundNotOpen, got %v", err)
	}
	// e um novo sorteio também
	if _, err := e.AttemptDrawAt(context.Background(), 30, seed); !errors.Is(err, engine.ErrRoundNotOpen) {
		t.Errorf("draws during settlement must fail with ErrRoundNotOpen, got %v", err)
	}

	retried, err := e.RetrySettlement(context.Background())
	if err != nil {
		t.Fatalf("retry settlement failed: %v", err)
	}
	if retried.Status != engine.DrawSettled {
		t.Fatalf("expected SETTLED after retry, got %s", retried.Status)
	}

	// nenhuma parcela pode ser paga duas vezes
	for _, w := range retried.Winners {
		if got := host.calls[w.ExternalRef]; got != 1 {
			t.Errorf("payout %s executed %d times, want exactly 1", w.ExternalRef, got)
		}
	}
	if host.balances[engine.PotAccount] != 0 {
		t.Errorf("pot custody should be drained, got %d", host.balances[engine.PotAccount])
	}

	st := e.Status()
	if st.State != engine.StateOpen || st.PotCents != 0 || st.BetCount != 0 {
		t.Errorf("round should be fresh and OPEN after retry, status: %+v", st)
	}
}

func TestRestoreMidSettlementResumesPlan(t *testing.T) {
	seed := []byte("crash-seed")
	host := newFakeHost(1, seed)
	e := engine.New(defaultConfig(), host)

	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()

	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	bob, err := e.PlaceBet(context.Background(), "bob", numbers[:], 100)
	if err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	// a parcela de alice paga, a de bob falha: liquidação cai no meio
	roundID := e.Status().RoundID
	bobRef := "payout:" + roundID + ":" + bob.ID
	host.failures[bobRef] = 1

	if _, err := e.AttemptDrawAt(context.Background(), 11, seed); !errors.Is(err, engine.ErrPartialPayout) {
		t.Fatalf("expected ErrPartialPayout, got %v", err)
	}
	if host.balances[engine.PotAccount] != 100 {
		t.Fatalf("custody should hold only bob's share, got %d", host.balances[engine.PotAccount])
	}

	pending, ok := e.PendingSettlement()
	if !ok {
		t.Fatal("a mid-settlement engine must expose its pending plan")
	}
	snap := e.Snapshot()

	// reinício do serviço: rodada e plano voltam do armazenamento
	restored := engine.Restore(defaultConfig(), host, snap, &pending)

	if st := restored.Status(); st.State != engine.StateDrawing {
		t.Fatalf("restored round with a pending plan must stay DRAWING, got %s", st.State)
	}
	if _, err := restored.PlaceBet(context.Background(), "carol", []int{9, 9, 9}, 100); !errors.Is(err, engine.ErrRoundNotOpen) {
		t.Errorf("bets during a restored settlement must fail with ErrRoundNotOpen, got %v", err)
	}

	retried, err := restored.RetrySettlement(context.Background())
	if err != nil {
		t.Fatalf("retry settlement after restore failed: %v", err)
	}
	if retried.Status != engine.DrawSettled {
		t.Fatalf("expected SETTLED, got %s", retried.Status)
	}

	// alice foi paga antes do reinício e não pode ser paga de novo
	for _, w := range retried.Winners {
		if got := host.calls[w.ExternalRef]; got != 1 {
			t.Errorf("payout %s executed %d times, want exactly 1", w.ExternalRef, got)
		}
	}
	if host.balances[engine.PotAccount] != 0 {
		t.Errorf("custody should be drained after resumed settlement, got %d", host.balances[engine.PotAccount])
	}
	if host.balances["alice"] != 0 || host.balances["bob"] != 0 {
		t.Errorf("each winner nets zero on an even split, balances: %v", host.balances)
	}
}

func TestRestoreDrawingWithEmptyPlanReopens(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	round := engine.Round{ID: "round-1", State: engine.StateDrawing, PotCents: 300, LastDrawHeight: 10}

	e := engine.Restore(defaultConfig(), host, round, &engine.PendingSettlement{})
	if st := e.Status(); st.State != engine.StateOpen {
		t.Errorf("an empty plan means no transfer ever ran, round should reopen, got %s", st.State)
	}
}

func TestHugeStakesSplitWithoutOverflow(t *testing.T) {
	seed := []byte("whale-seed")
	host := newFakeHost(1, seed)
	e := engine.New(defaultConfig(), host)

	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()

	// stakes grandes o bastante para pote*stake estourar int64
	const stake = int64(1) << 40
	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], stake); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "bob", numbers[:], stake); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.Status != engine.DrawSettled {
		t.Fatalf("expected SETTLED, got %s", res.Status)
	}
	for _, w := range res.Winners {
		if w.AmountCents != stake {
			t.Errorf("even split of a 2*stake pot should pay stake each, got %d", w.AmountCents)
		}
	}
	if host.balances[engine.PotAccount] != 0 {
		t.Errorf("no dust may stay in the pot, got %d", host.balances[engine.PotAccount])
	}
}

func TestRetrySettlementWithoutPending(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	e := engine.New(defaultConfig(), host)

	if _, err := e.RetrySettlement(context.Background()); !errors.Is(err, engine.ErrNoPendingSettlement) {
		t.Errorf("expected ErrNoPendingSettlement, got %v", err)
	}
}
