package action

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ts4z/deuces/builtins"
	"github.com/ts4z/deuces/fakes"
	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/round"
	"github.com/ts4z/deuces/settle"
	"github.com/ts4z/deuces/state"
	"github.com/ts4z/deuces/ts"
)

func newActor(t *testing.T) (*Actor, *fakes.FakeStorage) {
	t.Helper()
	paytables, err := state.NewDefaultPaytableStorage("")
	if err != nil {
		t.Fatal(err)
	}
	clock := ts.NewClock(clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC)))
	tm := round.NewMutator(clock, paytables, settle.TieBreakLastListed)
	storage := fakes.NewFakeStorage()
	return New(storage, tm, time.Second), storage
}

func newGame(t *testing.T, a *Actor, names ...string) (int64, []string) {
	t.Helper()
	ctx := context.Background()
	g, err := a.CreateGame(ctx, GameParams{Name: "friday", Bet: 5, PenaltyPayout: 3, PaytableID: builtins.StandardPaytableID})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	var ids []string
	for _, name := range names {
		p, err := a.AddPlayer(ctx, g.GameID, name)
		if err != nil {
			t.Fatalf("AddPlayer(%q): %v", name, err)
		}
		ids = append(ids, p.ID)
	}
	return g.GameID, ids
}

func TestPlayRound(t *testing.T) {
	ctx := context.Background()
	a, storage := newActor(t)
	id, ids := newGame(t, a, "amy", "bob", "cat")

	steps := []func() (*model.Game, error){
		func() (*model.Game, error) { return a.StartRound(ctx, id) },
		func() (*model.Game, error) { return a.RecordDeuce(ctx, id, ids[0]) },
		func() (*model.Game, error) { return a.Eliminate(ctx, id, ids[0]) },
		func() (*model.Game, error) { return a.Eliminate(ctx, id, ids[2]) },
		func() (*model.Game, error) { return a.EndRound(ctx, id) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	st, err := a.Settle(ctx, id)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// amy: rank 3, owes bob and cat 3 each for the deuce, then loses her bet
	// to bob, who finished first.
	want := []model.Debt{
		{Debtor: ids[0], Creditor: ids[1], Amount: 8},
		{Debtor: ids[0], Creditor: ids[2], Amount: 3},
	}
	if !reflect.DeepEqual(st.Debts, want) {
		t.Errorf("debts = %+v, want %+v", st.Debts, want)
	}

	stored, _ := storage.FetchGame(ctx, id)
	if !stored.Settled {
		t.Errorf("settlement not saved")
	}
	version := stored.OptimisticLock

	again, err := a.Settle(ctx, id)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(st, again) {
		t.Errorf("replay differs")
	}
	stored, _ = storage.FetchGame(ctx, id)
	if stored.OptimisticLock != version {
		t.Errorf("replay wrote the game (version %d -> %d)", version, stored.OptimisticLock)
	}

	fromStatement, err := a.Statement(ctx, id)
	if err != nil || !reflect.DeepEqual(fromStatement, st) {
		t.Errorf("Statement() = %+v, %v", fromStatement, err)
	}

	g, err := a.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if g.Phase() != model.PhaseNotStarted {
		t.Errorf("phase %s after reset", g.Phase())
	}
	if _, err := a.Statement(ctx, id); he.CodeOf(err) != 409 {
		t.Errorf("statement after reset: got %v, want 409", err)
	}
}

func TestFailedMutationIsNotSaved(t *testing.T) {
	ctx := context.Background()
	a, storage := newActor(t)
	id, _ := newGame(t, a, "amy", "bob")

	before, _ := storage.FetchGame(ctx, id)
	_, err := a.Eliminate(ctx, id, "nobody")
	if he.CodeOf(err) != 409 {
		// not running yet
		t.Errorf("got %v (code %d), want 409", err, he.CodeOf(err))
	}
	if _, err := a.StartRound(ctx, id); err != nil {
		t.Fatal(err)
	}
	_, err = a.Eliminate(ctx, id, "nobody")
	if !errors.Is(err, model.ErrNoSuchPlayer) || he.CodeOf(err) != 404 {
		t.Errorf("got %v (code %d), want 404 ErrNoSuchPlayer", err, he.CodeOf(err))
	}
	after, _ := storage.FetchGame(ctx, id)
	if after.OptimisticLock != before.OptimisticLock+1 {
		t.Errorf("version went from %d to %d, want exactly one save", before.OptimisticLock, after.OptimisticLock)
	}
}

func TestSettleRunningRound(t *testing.T) {
	ctx := context.Background()
	a, storage := newActor(t)
	id, _ := newGame(t, a, "amy", "bob")
	if _, err := a.StartRound(ctx, id); err != nil {
		t.Fatal(err)
	}
	before, _ := storage.FetchGame(ctx, id)

	_, err := a.Settle(ctx, id)
	if !errors.Is(err, settle.ErrInvalidState) || he.CodeOf(err) != 409 {
		t.Errorf("got %v (code %d), want 409 ErrInvalidState", err, he.CodeOf(err))
	}
	after, _ := storage.FetchGame(ctx, id)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("rejected settlement changed the stored game")
	}
}

func TestCreateGameRejects(t *testing.T) {
	ctx := context.Background()
	a, _ := newActor(t)
	tests := []struct {
		name   string
		params GameParams
		code   int
	}{
		{"no name", GameParams{Name: "  ", Bet: 5, PaytableID: 1}, 400},
		{"zero bet", GameParams{Name: "x", Bet: 0, PaytableID: 1}, 400},
		{"negative penalty", GameParams{Name: "x", Bet: 5, PenaltyPayout: -1, PaytableID: 1}, 400},
		{"no paytable", GameParams{Name: "x", Bet: 5, PaytableID: 77}, 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.CreateGame(ctx, tt.params); he.CodeOf(err) != tt.code {
				t.Errorf("got %v (code %d), want %d", err, he.CodeOf(err), tt.code)
			}
		})
	}
}

func TestBusyGameTimesOut(t *testing.T) {
	a, _ := newActor(t)
	a.timeout = 20 * time.Millisecond
	id, _ := newGame(t, a, "amy", "bob")

	unlock, err := a.lock(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	_, err = a.StartRound(context.Background(), id)
	if he.CodeOf(err) != 503 || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v (code %d), want 503 deadline exceeded", err, he.CodeOf(err))
	}
}

func TestDeleteGame(t *testing.T) {
	ctx := context.Background()
	a, _ := newActor(t)
	id, _ := newGame(t, a, "amy")
	if err := a.DeleteGame(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := a.FetchGame(ctx, id); he.CodeOf(err) != 404 {
		t.Errorf("got %v, want 404", err)
	}
	if err := a.DeleteGame(ctx, id); he.CodeOf(err) != 404 {
		t.Errorf("second delete: got %v, want 404", err)
	}
}

func TestPayouts(t *testing.T) {
	a, _ := newActor(t)
	id, _ := newGame(t, a, "amy", "bob")
	text, err := a.Payouts(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if text != "1st: 2.00x (10)\n2nd: 0.00x (0)" {
		t.Errorf("got %q", text)
	}
}
