package settle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ts4z/deuces/model"
)

// unit is one full stake in entitlement terms.  Transfers are made a whole
// bet at a time.
const unit = 100

// TieBreak decides between recipients holding equally large claims against a
// loser.
type TieBreak int

const (
	// TieBreakLastListed prefers the candidate appearing latest in the player
	// list.
	TieBreakLastListed TieBreak = iota
	// TieBreakLowestID prefers the candidate with the lexically smallest ID,
	// which doesn't depend on seating order.
	TieBreakLowestID
)

func (tb TieBreak) String() string {
	switch tb {
	case TieBreakLastListed:
		return "last-listed"
	case TieBreakLowestID:
		return "lowest-id"
	default:
		return fmt.Sprintf("TieBreak(%d)", int(tb))
	}
}

// ParseTieBreak accepts the names produced by String.
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-listed":
		return TieBreakLastListed, nil
	case "lowest-id":
		return TieBreakLowestID, nil
	}
	return 0, fmt.Errorf("%w: unknown tie break %q", ErrValidation, s)
}

// candidate is a recipient under consideration, with its position in the
// player list.
type candidate struct {
	player *model.Player
	index  int
	claim  int64
}

// better reports whether c should be chosen over the current best.
func (tb TieBreak) better(c, best candidate) bool {
	if c.claim != best.claim {
		return c.claim > best.claim
	}
	switch tb {
	case TieBreakLowestID:
		return c.player.ID < best.player.ID
	default:
		return c.index > best.index
	}
}

// roundTargets rounds every gross entitlement to a whole number of units so
// that the targets still sum to zero: everything is floored, then the players
// with the largest remainders (earliest listed first on ties) get one unit
// back until the floor deficit is made up.  Each target is less than one unit
// away from the entitlement it came from.
func roundTargets(players []*model.Player) []int {
	targets := make([]int, len(players))
	remainders := make([]int, len(players))
	deficit := 0
	for i, p := range players {
		targets[i] = floorUnit(p.GrossEntitlement)
		remainders[i] = p.GrossEntitlement - targets[i]
		deficit += remainders[i]
	}

	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for _, i := range order {
		if deficit < unit || remainders[i] == 0 {
			break
		}
		targets[i] += unit
		deficit -= unit
	}
	return targets
}

func floorUnit(n int) int {
	q := n / unit
	if n%unit != 0 && n < 0 {
		q--
	}
	return q * unit
}

// Distribute turns each loser's shortfall into one-bet transfers to winners.
// Each transfer goes to the winner that already holds the largest claim
// against the loser, so that penalty debts get cancelled first.  Losers are
// handled in player-list order.
//
// Entitlements that aren't whole units are rounded first (see roundTargets);
// the difference is left in GrossEntitlement-AssignedUnits for the caller.
func Distribute(players []*model.Player, bet int64, tb TieBreak) error {
	targets := roundTargets(players)
	for d, debtor := range players {
		if targets[d] >= 0 {
			continue
		}
		for targets[d] < debtor.AssignedUnits {
			r := selectRecipient(players, targets, debtor, tb)
			if r == nil {
				return fmt.Errorf("%w: player %s still owes %d units and no player is owed anything",
					ErrDistributionExhausted, debtor.ID, debtor.AssignedUnits-targets[d])
			}
			r.Ledger.Add(debtor.ID, bet)
			r.AssignedUnits += unit
			debtor.AssignedUnits -= unit
		}
	}
	return nil
}

// selectRecipient finds the most suitable winner to receive a unit from
// debtor, or nil if no winner is still owed.
func selectRecipient(players []*model.Player, targets []int, debtor *model.Player, tb TieBreak) *model.Player {
	var best *candidate
	for i, p := range players {
		if p == debtor || targets[i] <= p.AssignedUnits {
			continue
		}
		c := candidate{player: p, index: i, claim: p.Ledger.Get(debtor.ID)}
		if best == nil || tb.better(c, *best) {
			best = &c
		}
	}
	if best == nil {
		return nil
	}
	return best.player
}
