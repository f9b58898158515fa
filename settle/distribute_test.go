package settle

import (
	"errors"
	"testing"

	"github.com/ts4z/deuces/model"
)

// entitled builds a player whose entitlement has already been resolved.
func entitled(id string, gross int, bet int64) *model.Player {
	return &model.Player{
		ID:               id,
		GrossEntitlement: gross,
		PotResult:        bet * int64(gross) / 100,
	}
}

func TestDistributePrefersExistingClaim(t *testing.T) {
	w1 := entitled("w1", 100, 10)
	w2 := entitled("w2", 100, 10)
	l1 := entitled("l1", -100, 10)
	l2 := entitled("l2", -100, 10)
	w2.Ledger.Set("l1", 3)
	players := []*model.Player{w1, w2, l1, l2}

	if err := Distribute(players, 10, TieBreakLastListed); err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if got := w2.Ledger.Get("l1"); got != 13 {
		t.Errorf("l1 owes w2 %d, want 13", got)
	}
	if got := w1.Ledger.Get("l2"); got != 10 {
		t.Errorf("l2 owes w1 %d, want 10", got)
	}
	if w1.Ledger.Has("l1") || w2.Ledger.Has("l2") {
		t.Errorf("unexpected transfers: w1=%+v w2=%+v", w1.Ledger.Entries(), w2.Ledger.Entries())
	}
}

func TestDistributeTieBreak(t *testing.T) {
	tests := []struct {
		tb        TieBreak
		firstGoes string
	}{
		{TieBreakLastListed, "bob"},
		{TieBreakLowestID, "amy"},
	}
	for _, tt := range tests {
		t.Run(tt.tb.String(), func(t *testing.T) {
			amy := entitled("amy", 100, 1)
			bob := entitled("bob", 100, 1)
			cat := entitled("cat", -100, 1)
			dan := entitled("dan", -100, 1)
			players := []*model.Player{amy, bob, cat, dan}

			if err := Distribute(players, 1, tt.tb); err != nil {
				t.Fatalf("Distribute: %v", err)
			}
			for _, p := range []*model.Player{amy, bob} {
				fromCat := p.Ledger.Get("cat")
				if (p.ID == tt.firstGoes) != (fromCat == 1) {
					t.Errorf("%s got %d from cat; first unit should go to %s", p.ID, fromCat, tt.firstGoes)
				}
			}
		})
	}
}

func TestDistributeMultipleUnits(t *testing.T) {
	w := entitled("w", 300, 2)
	l1 := entitled("l1", -100, 2)
	l2 := entitled("l2", -200, 2)
	players := []*model.Player{l1, w, l2}

	if err := Distribute(players, 2, TieBreakLastListed); err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	if w.Ledger.Get("l1") != 2 || w.Ledger.Get("l2") != 4 {
		t.Errorf("got %+v, want l1=2 l2=4", w.Ledger.Entries())
	}
	for _, p := range players {
		if p.AssignedUnits != p.GrossEntitlement {
			t.Errorf("%s assigned %d, want %d", p.ID, p.AssignedUnits, p.GrossEntitlement)
		}
	}
}

func TestDistributeSplitsUnevenEntitlements(t *testing.T) {
	tests := []struct {
		name  string
		gross []int
	}{
		{"winners split", []int{150, 150, -300}},
		{"losers split", []int{-150, -150, 300}},
		{"three way", []int{-150, -150, -150, 450}},
		{"small", []int{-50, 25, 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var players []*model.Player
			for i, g := range tt.gross {
				players = append(players, entitled(string(rune('a'+i)), g, 10))
			}
			if err := Distribute(players, 10, TieBreakLastListed); err != nil {
				t.Fatalf("Distribute: %v", err)
			}
			sumAssigned, sumResidual := 0, 0
			for _, p := range players {
				r := p.GrossEntitlement - p.AssignedUnits
				if r <= -unit || r >= unit {
					t.Errorf("%s: gross %d assigned %d is a unit or more apart", p.ID, p.GrossEntitlement, p.AssignedUnits)
				}
				if p.AssignedUnits%unit != 0 {
					t.Errorf("%s: assigned %d is not whole units", p.ID, p.AssignedUnits)
				}
				sumAssigned += p.AssignedUnits
				sumResidual += r
			}
			if sumAssigned != 0 || sumResidual != 0 {
				t.Errorf("assigned sums to %d and residual to %d, want 0 and 0", sumAssigned, sumResidual)
			}
		})
	}
}

func TestDistributeExhausted(t *testing.T) {
	players := []*model.Player{
		entitled("a", 0, 5),
		entitled("b", -100, 5),
	}
	err := Distribute(players, 5, TieBreakLastListed)
	if !errors.Is(err, ErrDistributionExhausted) {
		t.Errorf("got %v, want ErrDistributionExhausted", err)
	}
}

func TestRoundTargets(t *testing.T) {
	tests := []struct {
		gross []int
		want  []int
	}{
		{[]int{100, 0, -100}, []int{100, 0, -100}},
		{[]int{150, 150, -300}, []int{200, 100, -300}},
		{[]int{-150, -150, 300}, []int{-100, -200, 300}},
		{[]int{-50, 25, 25}, []int{0, 0, 0}},
		{[]int{-250, 125, 125}, []int{-200, 100, 100}},
	}
	for _, tt := range tests {
		var players []*model.Player
		for _, g := range tt.gross {
			players = append(players, &model.Player{GrossEntitlement: g})
		}
		got := roundTargets(players)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("roundTargets(%v) = %v, want %v", tt.gross, got, tt.want)
				break
			}
		}
	}
}

func TestParseTieBreak(t *testing.T) {
	for _, tb := range []TieBreak{TieBreakLastListed, TieBreakLowestID} {
		got, err := ParseTieBreak(tb.String())
		if err != nil || got != tb {
			t.Errorf("ParseTieBreak(%q) = %v, %v", tb.String(), got, err)
		}
	}
	if tb, err := ParseTieBreak(""); err != nil || tb != TieBreakLastListed {
		t.Errorf("empty string should mean the default, got %v, %v", tb, err)
	}
	if _, err := ParseTieBreak("coin-flip"); !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}
