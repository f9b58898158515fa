package settle

import (
	"github.com/ts4z/deuces/model"
)

// Normalize nets every pair of opposing ledger entries down to a single
// directional debt.  For each pair the smaller amount is subtracted from both
// sides, leaving at most one side nonzero.  Applying it twice is harmless.
func Normalize(players []*model.Player) {
	byID := make(map[string]*model.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	for _, a := range players {
		for _, id := range a.Ledger.Counterparties() {
			b, ok := byID[id]
			if !ok || b == a {
				continue
			}
			netPair(a, b)
		}
	}
}

func netPair(a, b *model.Player) {
	ab := a.Ledger.Get(b.ID)
	ba := b.Ledger.Get(a.ID)
	m := min(ab, ba)
	if m == 0 {
		return
	}
	a.Ledger.Set(b.ID, ab-m)
	b.Ledger.Set(a.ID, ba-m)
}
