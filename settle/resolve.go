package settle

import (
	"fmt"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
)

// ResolvePayouts turns each player's rank into a gross entitlement and a pot
// result, and clears the assignment accumulator.  Every player must be
// ranked.
func ResolvePayouts(players []*model.Player, rules paytable.Rules, bet int64) error {
	if bet <= 0 {
		return fmt.Errorf("%w: bet %d is not positive", ErrValidation, bet)
	}
	for _, p := range players {
		if p.Rank == nil {
			return fmt.Errorf("%w: player %s has no rank", ErrValidation, p.ID)
		}
	}

	for _, p := range players {
		p.GrossEntitlement = rules.Percentage(*p.Rank) - 100 + p.CarryUnits
		p.PotResult = bet * int64(p.GrossEntitlement) / 100
		p.AssignedUnits = 0
		p.ResidualUnits = 0
	}
	return nil
}
