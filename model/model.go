package model

import (
	"time"
)

// Player is one participant in a game.  Most of the numeric fields are
// per-round and get reset when a round starts.
type Player struct {
	ID   string
	Name string

	// Rank is nil while the player is still in (or the round hasn't ended).
	// Lower numbers are better; the last player standing is rank 1.
	Rank         *int `json:",omitempty"`
	IsActive     bool
	PenaltyCount int

	// GrossEntitlement is the payout percentage less the player's own stake
	// (100), so it's zero for a player who breaks even.
	GrossEntitlement int
	// AssignedUnits tracks how much of GrossEntitlement has been turned into
	// transfers, in steps of 100.
	AssignedUnits int
	// ResidualUnits is GrossEntitlement-AssignedUnits after settlement.  It is
	// always smaller than one unit.
	ResidualUnits int
	// CarryUnits is the previous round's residual, folded into this round's
	// GrossEntitlement.
	CarryUnits int

	// PotResult is the player's net pot result before distribution, in the
	// same currency unit as the bet.
	PotResult int64

	// Ledger holds what each counterparty owes this player.
	Ledger Ledger
}

// RankOf returns the player's rank, or 0 if unranked.
func (p *Player) RankOf() int {
	if p.Rank == nil {
		return 0
	}
	return *p.Rank
}

func (p *Player) SetRank(rank int) {
	p.Rank = &rank
}

func (p *Player) Clone() *Player {
	cpy := *p
	if p.Rank != nil {
		cpy.SetRank(*p.Rank)
	}
	cpy.Ledger = p.Ledger.Clone()
	return &cpy
}

// Phase describes where a game is in its round lifecycle.
type Phase string

const (
	PhaseNotStarted Phase = "not-started"
	PhaseRunning    Phase = "running"
	PhaseEnded      Phase = "ended"
	PhaseSettled    Phase = "settled"
)

// Game is a table of players playing consecutive rounds for the same bet.
type Game struct {
	GameID         int64
	OptimisticLock int64

	Name          string
	Bet           int64
	PenaltyPayout int64
	PaytableID    int64

	Round        int
	RoundStarted bool
	IsRunning    bool
	Settled      bool
	SettledAt    *time.Time `json:",omitempty"`

	Players []*Player
}

func (g *Game) Phase() Phase {
	switch {
	case g.Settled:
		return PhaseSettled
	case g.IsRunning:
		return PhaseRunning
	case g.RoundStarted:
		return PhaseEnded
	default:
		return PhaseNotStarted
	}
}

// PlayerByID returns the player and its index, or nil and -1.
func (g *Game) PlayerByID(id string) (*Player, int) {
	for i, p := range g.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (g *Game) ActivePlayers() int {
	n := 0
	for _, p := range g.Players {
		if p.IsActive {
			n++
		}
	}
	return n
}

// Clone makes a deep copy, suitable for mutating without disturbing a cached
// original.
func (g *Game) Clone() *Game {
	cpy := *g
	if g.SettledAt != nil {
		t := *g.SettledAt
		cpy.SettledAt = &t
	}
	cpy.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cpy.Players[i] = p.Clone()
	}
	return &cpy
}

// Debt is a single net amount one player owes another after settlement.
type Debt struct {
	Debtor   string
	Creditor string
	Amount   int64
}

// StatementLine summarizes one player's settlement.
type StatementLine struct {
	PlayerID         string
	Name             string
	Rank             int
	PenaltyCount     int
	GrossEntitlement int
	AssignedUnits    int
	ResidualUnits    int
	PotResult        int64
}

// Statement is the result of settling a round.
type Statement struct {
	GameID    int64
	Round     int
	Bet       int64
	SettledAt time.Time
	Lines     []StatementLine
	Debts     []Debt
}

// GameSlug describes a single game for rendering the game list.
type GameSlug struct {
	GameID  int64
	Name    string
	Players int
	Phase   Phase
}

// Overview describes the available games.
type Overview struct {
	Slugs []GameSlug
}
