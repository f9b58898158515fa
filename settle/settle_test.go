package settle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
	"github.com/ts4z/deuces/ts"
)

var (
	settledAt     = time.Date(2026, 10, 19, 21, 30, 0, 0, time.UTC)
	scenarioRules = paytable.Rules{1: 200, 2: 100, 3: 0}
)

func newSettler() *Settler {
	return NewSettler(ts.NewClock(clockwork.NewFakeClockAt(settledAt)), TieBreakLastListed)
}

func rankedPlayer(id string, rank int) *model.Player {
	p := &model.Player{ID: id, Name: id, IsActive: rank == 1}
	p.SetRank(rank)
	return p
}

// scenarioGame is three players, bet 5, finishing in list order.
func scenarioGame() *model.Game {
	return &model.Game{
		GameID:        1,
		Name:          "scenario",
		Bet:           5,
		PenaltyPayout: 3,
		Round:         1,
		RoundStarted:  true,
		Players: []*model.Player{
			rankedPlayer("p1", 1),
			rankedPlayer("p2", 2),
			rankedPlayer("p3", 3),
		},
	}
}

func TestScenarioA(t *testing.T) {
	g := scenarioGame()
	st, err := newSettler().Settle(g, scenarioRules)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	wantGross := []int{100, 0, -100}
	wantPot := []int64{5, 0, -5}
	for i, p := range g.Players {
		if p.GrossEntitlement != wantGross[i] {
			t.Errorf("%s gross = %d, want %d", p.ID, p.GrossEntitlement, wantGross[i])
		}
		if p.PotResult != wantPot[i] {
			t.Errorf("%s pot = %d, want %d", p.ID, p.PotResult, wantPot[i])
		}
		if p.AssignedUnits != p.GrossEntitlement {
			t.Errorf("%s assigned = %d, want %d", p.ID, p.AssignedUnits, p.GrossEntitlement)
		}
	}

	if got := g.Players[0].Ledger.Get("p3"); got != 5 {
		t.Errorf("p3 owes p1 %d, want 5", got)
	}
	if g.Players[1].Ledger.Len() != 0 {
		t.Errorf("p2 should receive nothing, has %+v", g.Players[1].Ledger.Entries())
	}

	want := []model.Debt{{Debtor: "p3", Creditor: "p1", Amount: 5}}
	if !reflect.DeepEqual(st.Debts, want) {
		t.Errorf("debts = %+v, want %+v", st.Debts, want)
	}
	if !g.Settled || g.SettledAt == nil || !g.SettledAt.Equal(settledAt) {
		t.Errorf("game not marked settled at %v: %v %v", settledAt, g.Settled, g.SettledAt)
	}
	if !st.SettledAt.Equal(settledAt) {
		t.Errorf("statement settled at %v, want %v", st.SettledAt, settledAt)
	}
}

func TestScenarioBPenaltyDebtIsAddedTo(t *testing.T) {
	g := scenarioGame()
	g.Players[0].Ledger.Set("p3", 3)

	st, err := newSettler().Settle(g, scenarioRules)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if got := g.Players[0].Ledger.Get("p3"); got != 8 {
		t.Errorf("p3 owes p1 %d, want 8", got)
	}
	if got := g.Players[2].Ledger.Get("p1"); got != 0 {
		t.Errorf("p1 owes p3 %d, want 0", got)
	}
	want := []model.Debt{{Debtor: "p3", Creditor: "p1", Amount: 8}}
	if !reflect.DeepEqual(st.Debts, want) {
		t.Errorf("debts = %+v, want %+v", st.Debts, want)
	}
}

func TestPenaltyDebtNetsAgainstPayout(t *testing.T) {
	g := scenarioGame()
	// p1 owes p3 from penalties; p3's loss to p1 cancels it.
	g.Players[2].Ledger.Set("p1", 7)

	st, err := newSettler().Settle(g, scenarioRules)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	want := []model.Debt{{Debtor: "p1", Creditor: "p3", Amount: 2}}
	if !reflect.DeepEqual(st.Debts, want) {
		t.Errorf("debts = %+v, want %+v", st.Debts, want)
	}
}

func TestScenarioCRunning(t *testing.T) {
	g := scenarioGame()
	g.IsRunning = true
	before := g.Clone()

	_, err := newSettler().Settle(g, scenarioRules)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("got %v, want ErrInvalidState", err)
	}
	if !reflect.DeepEqual(g, before) {
		t.Errorf("game mutated by rejected settlement")
	}
}

func TestScenarioDUnranked(t *testing.T) {
	g := scenarioGame()
	g.Players[1].Rank = nil
	before := g.Clone()

	_, err := newSettler().Settle(g, scenarioRules)
	if !errors.Is(err, ErrIncompleteRound) {
		t.Fatalf("got %v, want ErrIncompleteRound", err)
	}
	if !reflect.DeepEqual(g, before) {
		t.Errorf("game mutated by rejected settlement")
	}
	if g.Settled {
		t.Errorf("game marked settled")
	}
}

func TestScenarioEReplay(t *testing.T) {
	g := scenarioGame()
	s := newSettler()
	first, err := s.Settle(g, scenarioRules)
	if err != nil {
		t.Fatalf("first Settle: %v", err)
	}
	after := g.Clone()

	second, err := s.Settle(g, scenarioRules)
	if err != nil {
		t.Fatalf("second Settle: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay differs:\nfirst  %+v\nsecond %+v", first, second)
	}
	if !reflect.DeepEqual(g, after) {
		t.Errorf("replay mutated the game")
	}
	if !g.Settled {
		t.Errorf("settled flag cleared")
	}
}

func TestReplayIgnoresRules(t *testing.T) {
	g := scenarioGame()
	s := newSettler()
	first, err := s.Settle(g, scenarioRules)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Settle(g, paytable.Rules{1: 300})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay recomputed with new rules")
	}
}

func TestGateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Game)
		rules  paytable.Rules
	}{
		{"zero bet", func(g *model.Game) { g.Bet = 0 }, scenarioRules},
		{"negative bet", func(g *model.Game) { g.Bet = -5 }, scenarioRules},
		{"negative penalty", func(g *model.Game) { g.PenaltyPayout = -1 }, scenarioRules},
		{"negative percentage", func(*model.Game) {}, paytable.Rules{1: 400, 2: -100}},
		{"rank zero rule", func(*model.Game) {}, paytable.Rules{0: 100, 1: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := scenarioGame()
			tt.mutate(g)
			_, err := newSettler().Settle(g, tt.rules)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
			if g.Settled {
				t.Errorf("game marked settled")
			}
		})
	}
}

func TestFailedDistributionLeavesUnsettled(t *testing.T) {
	g := scenarioGame()
	// Rules that don't conserve: nobody wins what p3 loses.
	_, err := newSettler().Settle(g, paytable.Rules{1: 100, 2: 100, 3: 0})
	if !errors.Is(err, ErrDistributionExhausted) {
		t.Fatalf("got %v, want ErrDistributionExhausted", err)
	}
	if g.Settled || g.SettledAt != nil {
		t.Errorf("failed settlement marked the game settled")
	}
}

func TestCarryIsFoldedIntoEntitlement(t *testing.T) {
	g := scenarioGame()
	g.Players[0].CarryUnits = -50
	g.Players[2].CarryUnits = 50

	if _, err := newSettler().Settle(g, scenarioRules); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	want := []int{50, 0, -50}
	sum := 0
	for i, p := range g.Players {
		if p.GrossEntitlement != want[i] {
			t.Errorf("%s gross = %d, want %d", p.ID, p.GrossEntitlement, want[i])
		}
		sum += p.ResidualUnits
		if p.ResidualUnits <= -unit || p.ResidualUnits >= unit {
			t.Errorf("%s residual %d is a whole unit or more", p.ID, p.ResidualUnits)
		}
	}
	if sum != 0 {
		t.Errorf("residuals sum to %d, want 0", sum)
	}
}

func TestStatementOrdersDebtsByCreditor(t *testing.T) {
	g := &model.Game{
		GameID: 4,
		Bet:    10,
		Players: []*model.Player{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		},
	}
	g.Players[1].Ledger.Set("c", 4)
	g.Players[1].Ledger.Set("a", 0)
	g.Players[0].Ledger.Set("c", 10)
	g.Players[0].Ledger.Set("b", -2)

	st := Statement(g)
	want := []model.Debt{
		{Debtor: "c", Creditor: "a", Amount: 10},
		{Debtor: "c", Creditor: "b", Amount: 4},
	}
	if !reflect.DeepEqual(st.Debts, want) {
		t.Errorf("got %+v, want %+v", st.Debts, want)
	}
	if len(st.Lines) != 3 || st.Lines[0].Rank != 0 {
		t.Errorf("unexpected lines %+v", st.Lines)
	}
}
