package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/radieske/lottery-platform-poc/internal/lottery-service/engine"
	"github.com/radieske/lottery-platform-poc/internal/lottery-service/rng"
)

// fakeHost implementa engine.Host em memória, com altura e seed fixáveis e
// falhas de transferência injetáveis por externalRef.
type fakeHost struct {
	height   uint64
	seed     []byte
	balances map[string]int64
	failures map[string]int // externalRef -> quantas vezes ainda deve falhar
	calls    map[string]int // externalRef -> transferências efetivadas
	events   []any
}

func newFakeHost(height uint64, seed []byte) *fakeHost {
	return &fakeHost{
		height:   height,
		seed:     seed,
		balances: make(map[string]int64),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (h *fakeHost) CurrentHeight(ctx context.Context) (uint64, error) { return h.height, nil }

func (h *fakeHost) EntropySeed(ctx context.Context, height uint64) ([]byte, error) {
	return h.seed, nil
}

func (h *fakeHost) Transfer(ctx context.Context, from, to string, amountCents int64, externalRef string) error {
	if n := h.failures[externalRef]; n > 0 {
		h.failures[externalRef] = n - 1
		return fmt.Errorf("injected failure for %s", externalRef)
	}
	h.balances[from] -= amountCents
	h.balances[to] += amountCents
	h.calls[externalRef]++
	return nil
}

func (h *fakeHost) Emit(ctx context.Context, event any) { h.events = append(h.events, event) }

func defaultConfig() engine.Config {
	return engine.Config{DrawIntervalBlocks: 10, MinStakeCents: 1, GenesisHeight: 0}
}

func TestPlaceBetRecordsAndCollectsStake(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	e := engine.New(defaultConfig(), host)

	bet, err := e.PlaceBet(context.Background(), "alice", []int{1, 2, 3}, 100)
	if err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if bet.ID == "" {
		t.Error("bet should have an ID")
	}
	if bet.Height != 1 {
		t.Errorf("bet height should be the host height, got %d", bet.Height)
	}

	st := e.Status()
	if st.PotCents != 100 {
		t.Errorf("pot should be 100, got %d", st.PotCents)
	}
	if st.BetCount != 1 {
		t.Errorf("bet count should be 1, got %d", st.BetCount)
	}
	if host.balances["alice"] != -100 || host.balances[engine.PotAccount] != 100 {
		t.Errorf("stake should move into pot custody, balances: %v", host.balances)
	}
	if len(host.events) != 1 {
		t.Fatalf("expected 1 emitted event, got %d", len(host.events))
	}
	if _, ok := host.events[0].(engine.BetPlacedEvent); !ok {
		t.Errorf("expected BetPlacedEvent, got %T", host.events[0])
	}
}

func TestPlaceBetInvalidNumbers(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	e := engine.New(defaultConfig(), host)

	cases := [][]int{
		{1, 2},
		{1, 2, 3, 4},
		{},
		{-1, 2, 3},
		{1, 2, 256},
	}
	for _, numbers := range cases {
		if _, err := e.PlaceBet(context.Background(), "alice", numbers, 100); !errors.Is(err, engine.ErrInvalidNumbers) {
			t.Errorf("numbers %v: expected ErrInvalidNumbers, got %v", numbers, err)
		}
	}

	if st := e.Status(); st.PotCents != 0 || st.BetCount != 0 {
		t.Errorf("ledger should be untouched after rejected bets, status: %+v", st)
	}
	if len(host.calls) != 0 {
		t.Errorf("no transfer should have happened, got %v", host.calls)
	}
}

func TestPlaceBetInvalidStake(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	e := engine.New(engine.Config{DrawIntervalBlocks: 10, MinStakeCents: 100}, host)

	for _, stake := range []int64{0, -5, 99} {
		if _, err := e.PlaceBet(context.Background(), "alice", []int{1, 2, 3}, stake); !errors.Is(err, engine.ErrInvalidStake) {
			t.Errorf("stake %d: expected ErrInvalidStake, got %v", stake, err)
		}
	}
}

func TestPlaceBetTransferFailureLeavesNoTrace(t *testing.T) {
	// toda coleta de stake falha: a aposta não pode entrar no livro
	host := &refPrefixFailHost{fakeHost: newFakeHost(1, []byte("seed")), prefix: "stake:"}
	e := engine.New(defaultConfig(), host)

	if _, err := e.PlaceBet(context.Background(), "alice", []int{1, 2, 3}, 100); !errors.Is(err, engine.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if st := e.Status(); st.PotCents != 0 || st.BetCount != 0 {
		t.Errorf("failed transfer must not mutate the ledger, status: %+v", st)
	}
}

// refPrefixFailHost falha toda transferência cujo externalRef tenha o prefixo.
type refPrefixFailHost struct {
	*fakeHost
	prefix string
}

func (h *refPrefixFailHost) Transfer(ctx context.Context, from, to string, amountCents int64, externalRef string) error {
	if len(externalRef) >= len(h.prefix) && externalRef[:len(h.prefix)] == h.prefix {
		return errors.New("insufficient funds")
	}
	return h.fakeHost.Transfer(ctx, from, to, amountCents, externalRef)
}

func TestPermutationsAreDistinctBets(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	e := engine.New(defaultConfig(), host)

	if _, err := e.PlaceBet(context.Background(), "alice", []int{1, 2, 3}, 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}
	if _, err := e.PlaceBet(context.Background(), "bob", []int{3, 2, 1}, 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	bets := e.ListBets()
	if len(bets) != 2 {
		t.Fatalf("expected 2 distinct bets, got %d", len(bets))
	}
	if bets[0].Numbers == bets[1].Numbers {
		t.Error("permutations of the same numbers must be stored as distinct sequences")
	}
	if bets[0].Owner != "alice" || bets[1].Owner != "bob" {
		t.Error("bets must keep submission order")
	}
}

func TestAttemptDrawTooEarly(t *testing.T) {
	host := newFakeHost(5, []byte("seed"))
	e := engine.New(defaultConfig(), host)

	if _, err := e.PlaceBet(context.Background(), "alice", []int{1, 2, 3}, 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	_, err := e.AttemptDrawAt(context.Background(), 9, []byte("seed"))
	if !errors.Is(err, engine.ErrTooEarly) {
		t.Fatalf("expected ErrTooEarly, got %v", err)
	}

	st := e.Status()
	if st.State != engine.StateOpen || st.PotCents != 100 || st.LastDrawHeight != 0 {
		t.Errorf("too-early draw must not change state, status: %+v", st)
	}
}

func TestDrawNoWinnerCarriesOver(t *testing.T) {
	seed := []byte("no-winner-seed")
	host := newFakeHost(1, seed)
	e := engine.New(defaultConfig(), host)

	// escolhe números garantidamente diferentes do resultado da altura 11
	outcome, err := rng.DeriveOutcome(seed, 11)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	numbers := outcome.Ints()
	numbers[0] = (numbers[0] + 1) % 256

	if _, err := e.PlaceBet(context.Background(), "alice", numbers[:], 100); err != nil {
		t.Fatalf("place bet failed: %v", err)
	}

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.Status != engine.DrawNoWinner {
		t.Fatalf("expected NO_WINNER, got %s", res.Status)
	}

	st := e.Status()
	if st.PotCents != 100 {
		t.Errorf("pot must carry over, got %d", st.PotCents)
	}
	if st.BetCount != 1 {
		t.Errorf("bets must persist across draws, got %d", st.BetCount)
	}
	if st.LastDrawHeight != 11 {
		t.Errorf("last draw height should be 11, got %d", st.LastDrawHeight)
	}
	if st.State != engine.StateOpen {
		t.Errorf("round should be OPEN again, got %s", st.State)
	}

	// novo sorteio logo em seguida ainda é cedo
	if _, err := e.AttemptDrawAt(context.Background(), 12, seed); !errors.Is(err, engine.ErrTooEarly) {
		t.Errorf("draw at height 12 should be too early, got %v", err)
	}
}

func TestDrawWinnerSettlesRound(t *testing.T) {
	seed := []byte("winning-seed")
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

	res, err := e.AttemptDrawAt(context.Background(), 11, seed)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.Status != engine.DrawSettled {
		t.Fatalf("expected SETTLED, got %s", res.Status)
	}
	if len(res.Winners) != 1 || res.Winners[0].AmountCents != 100 {
		t.Fatalf("alice should receive the whole pot, winners: %+v", res.Winners)
	}

	// stake saiu e voltou: saldo líquido zero, pote vazio
	if host.balances["alice"] != 0 {
		t.Errorf("alice net balance should be 0, got %d", host.balances["alice"])
	}
	if host.balances[engine.PotAccount] != 0 {
		t.Errorf("pot custody should be empty, got %d", host.balances[engine.PotAccount])
	}

	st := e.Status()
	if st.State != engine.StateOpen {
		t.Errorf("a fresh round should be OPEN, got %s", st.State)
	}
	if st.PotCents != 0 || st.BetCount != 0 {
		t.Errorf("settlement must clear pot and bets, status: %+v", st)
	}
	if st.LastDrawHeight != 11 {
		t.Errorf("new round should start from draw height 11, got %d", st.LastDrawHeight)
	}
	if st.RoundID == res.RoundID {
		t.Error("settlement must supersede the round with a fresh one")
	}
}

func TestAttemptDrawPullsHeightAndSeedFromHost(t *testing.T) {
	seed := []byte("host-driven")
	host := newFakeHost(27, seed)
	e := engine.New(defaultConfig(), host)

	res, err := e.AttemptDraw(context.Background())
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if res.Height != 27 {
		t.Errorf("draw should use host height, got %d", res.Height)
	}

	want, _ := rng.DeriveOutcome(seed, 27)
	if res.Outcome != want {
		t.Errorf("outcome should derive from host seed, got %v want %v", res.Outcome, want)
	}
}

func TestRestoreDrawingRoundReopens(t *testing.T) {
	host := newFakeHost(1, []byte("seed"))
	round := engine.Round{
		ID:             "round-1",
		State:          engine.StateDrawing,
		PotCents:       500,
		LastDrawHeight: 10,
	}

	e := engine.Restore(defaultConfig(), host, round, nil)
	st := e.Status()
	if st.State != engine.StateOpen {
		t.Errorf("restored DRAWING round without pending payouts should reopen, got %s", st.State)
	}
	if st.PotCents != 500 || st.RoundID != "round-1" {
		t.Errorf("restore should keep round identity and pot, status: %+v", st)
	}
}
