// Package settle computes the end-of-round settlement for a game.
//
// Settlement runs in three steps over an in-memory snapshot of the game:
// ResolvePayouts turns ranks into entitlements, Distribute turns losers'
// shortfalls into one-bet transfers to winners, and Normalize nets opposing
// debts between each pair of players.  Settler sequences these and makes sure
// a round is settled at most once.
//
// Nothing here does I/O or locking.  The caller owns the snapshot, must keep
// other writers away from it for the duration of a call, and is responsible
// for persisting it afterwards.  A failed settlement leaves the snapshot
// partially mutated; throw it away rather than retrying on it.
package settle

import (
	"fmt"
	"log"
	"time"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
	"github.com/ts4z/deuces/varz"
)

var (
	settlementsCompleted = varz.NewInt("settlementsCompleted")
	settlementReplays    = varz.NewInt("settlementReplays")
	settlementFailures   = varz.NewInt("settlementFailures")
)

// Clock gets the current time.  ts.Clock implements this.
type Clock interface {
	Now() time.Time
}

type Settler struct {
	clock    Clock
	tieBreak TieBreak
}

func NewSettler(clock Clock, tb TieBreak) *Settler {
	return &Settler{
		clock:    clock,
		tieBreak: tb,
	}
}

// Settle settles the current round of g using rules, and returns the
// resulting statement.  Calling it again on a settled round returns the same
// statement without touching g.
func (s *Settler) Settle(g *model.Game, rules paytable.Rules) (*model.Statement, error) {
	if g.IsRunning {
		return nil, fmt.Errorf("%w: game %d round %d is still running", ErrInvalidState, g.GameID, g.Round)
	}
	if g.Settled {
		log.Printf("debug: game %d round %d already settled, replaying", g.GameID, g.Round)
		settlementReplays.Add(1)
		return Statement(g), nil
	}
	if err := checkInputs(g, rules); err != nil {
		return nil, err
	}

	if err := s.settle(g, rules); err != nil {
		settlementFailures.Add(1)
		log.Printf("settlement of game %d round %d failed: %v", g.GameID, g.Round, err)
		return nil, err
	}

	now := s.clock.Now()
	g.Settled = true
	g.SettledAt = &now
	settlementsCompleted.Add(1)
	log.Printf("settled game %d round %d", g.GameID, g.Round)
	return Statement(g), nil
}

func (s *Settler) settle(g *model.Game, rules paytable.Rules) error {
	if err := ResolvePayouts(g.Players, rules, g.Bet); err != nil {
		return err
	}
	if err := Distribute(g.Players, g.Bet, s.tieBreak); err != nil {
		return err
	}
	Normalize(g.Players)
	for _, p := range g.Players {
		p.ResidualUnits = p.GrossEntitlement - p.AssignedUnits
	}
	return nil
}

// checkInputs is the precondition gate.  It doesn't mutate anything.
func checkInputs(g *model.Game, rules paytable.Rules) error {
	for _, p := range g.Players {
		if p.Rank == nil {
			return fmt.Errorf("%w: player %s (%s) has no rank", ErrIncompleteRound, p.ID, p.Name)
		}
	}
	if g.Bet <= 0 {
		return fmt.Errorf("%w: bet %d is not positive", ErrValidation, g.Bet)
	}
	if g.PenaltyPayout < 0 {
		return fmt.Errorf("%w: penalty payout %d is negative", ErrValidation, g.PenaltyPayout)
	}
	for rank, pct := range rules {
		if rank < 1 {
			return fmt.Errorf("%w: payout rule for rank %d", ErrValidation, rank)
		}
		if pct < 0 {
			return fmt.Errorf("%w: payout rule for rank %d has percentage %d", ErrValidation, rank, pct)
		}
	}
	return nil
}

// Statement summarizes the settled state of g.  Debts are listed creditor by
// creditor in player-list order, following each creditor's ledger order.
func Statement(g *model.Game) *model.Statement {
	st := &model.Statement{
		GameID: g.GameID,
		Round:  g.Round,
		Bet:    g.Bet,
		Lines:  make([]model.StatementLine, 0, len(g.Players)),
		Debts:  []model.Debt{},
	}
	if g.SettledAt != nil {
		st.SettledAt = *g.SettledAt
	}
	for _, p := range g.Players {
		st.Lines = append(st.Lines, model.StatementLine{
			PlayerID:         p.ID,
			Name:             p.Name,
			Rank:             p.RankOf(),
			PenaltyCount:     p.PenaltyCount,
			GrossEntitlement: p.GrossEntitlement,
			AssignedUnits:    p.AssignedUnits,
			ResidualUnits:    p.ResidualUnits,
			PotResult:        p.PotResult,
		})
	}
	for _, creditor := range g.Players {
		for _, e := range creditor.Ledger.Entries() {
			if e.Amount <= 0 {
				continue
			}
			st.Debts = append(st.Debts, model.Debt{
				Debtor:   e.Counterparty,
				Creditor: creditor.ID,
				Amount:   e.Amount,
			})
		}
	}
	return st
}
