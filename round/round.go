// Package round provides the round lifecycle of a game, independent of how
// games are stored.
//
// A round goes NotStarted -> Running -> Ended -> Settled, and Reset takes it
// back to NotStarted.  Players join and leave only between rounds.  While the
// round runs, players are eliminated one at a time (and may be reinstated if
// the dealer made a mistake), and deuces are recorded as penalties owed to
// everyone else at the table.  When one player is left, the round ends and
// can be settled.
//
// Like the settlement core, the Mutator works on a snapshot and does no
// locking.  Errors wrap the settle package's sentinels, or
// model.ErrNoSuchPlayer.
package round

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
	"github.com/ts4z/deuces/settle"
	"github.com/ts4z/deuces/textutil"
)

// Clock gets the current time.  ts.Clock implements this.
type Clock interface {
	Now() time.Time
}

// PaytableFetcher does what it says on the tin.  Storage implements
// this.
type PaytableFetcher interface {
	FetchPaytableByID(ctx context.Context, id int64) (*paytable.Paytable, error)
}

type Mutator struct {
	ptf     PaytableFetcher
	settler *settle.Settler
}

func NewMutator(clock Clock, paytableFetcher PaytableFetcher, tb settle.TieBreak) *Mutator {
	return &Mutator{
		ptf:     paytableFetcher,
		settler: settle.NewSettler(clock, tb),
	}
}

func requirePhase(g *model.Game, want model.Phase, doing string) error {
	if got := g.Phase(); got != want {
		return fmt.Errorf("%w: can't %s game %d while %s", settle.ErrInvalidState, doing, g.GameID, got)
	}
	return nil
}

func findPlayer(g *model.Game, id string) (*model.Player, int, error) {
	p, i := g.PlayerByID(id)
	if p == nil {
		return nil, -1, fmt.Errorf("%w: %q in game %d", model.ErrNoSuchPlayer, id, g.GameID)
	}
	return p, i, nil
}

// AddPlayer seats a new player at the table.
func (tm *Mutator) AddPlayer(g *model.Game, name string) (*model.Player, error) {
	if err := requirePhase(g, model.PhaseNotStarted, "add a player to"); err != nil {
		return nil, err
	}
	clean, ok := textutil.CleanPlayerName(name)
	if !ok {
		return nil, fmt.Errorf("%w: player name %q must be letters and digits", settle.ErrValidation, name)
	}
	p := &model.Player{
		ID:   uuid.NewString(),
		Name: clean,
	}
	g.Players = append(g.Players, p)
	log.Printf("game %d: added player %s (%s)", g.GameID, p.ID, p.Name)
	return p, nil
}

// RemovePlayer takes a player away from the table.  A player carrying a
// residual from an earlier round can't leave, since someone else is carrying
// the other side of it.
func (tm *Mutator) RemovePlayer(g *model.Game, id string) error {
	if err := requirePhase(g, model.PhaseNotStarted, "remove a player from"); err != nil {
		return err
	}
	p, i, err := findPlayer(g, id)
	if err != nil {
		return err
	}
	if p.CarryUnits != 0 {
		return fmt.Errorf("%w: player %s carries %d units into the next round", settle.ErrInvalidState, p.ID, p.CarryUnits)
	}
	g.Players = append(g.Players[:i:i], g.Players[i+1:]...)
	for _, other := range g.Players {
		other.Ledger.Remove(id)
	}
	log.Printf("game %d: removed player %s (%s)", g.GameID, p.ID, p.Name)
	return nil
}

func (tm *Mutator) Paytable(ctx context.Context, id int64) (*paytable.Paytable, error) {
	pt, err := tm.ptf.FetchPaytableByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't fetch paytable %d: %w", id, err)
	}
	return pt, nil
}

// Rules fetches the game's paytable and returns the rules for the number of
// players seated.
func (tm *Mutator) Rules(ctx context.Context, g *model.Game) (paytable.Rules, error) {
	pt, err := tm.Paytable(ctx, g.PaytableID)
	if err != nil {
		return nil, err
	}
	n := len(g.Players)
	rules, err := pt.Rules(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", settle.ErrValidation, err)
	}
	if err := rules.Validate(n); err != nil {
		return nil, fmt.Errorf("%w: paytable %q: %v", settle.ErrValidation, pt.Name, err)
	}
	return rules, nil
}

// StartRound clears everything left from the previous round and starts the
// next one with every player active.
func (tm *Mutator) StartRound(ctx context.Context, g *model.Game) error {
	if err := requirePhase(g, model.PhaseNotStarted, "start a round of"); err != nil {
		return err
	}
	if len(g.Players) < 2 {
		return fmt.Errorf("%w: game %d has %d players, need at least 2", settle.ErrValidation, g.GameID, len(g.Players))
	}
	if g.Bet <= 0 {
		return fmt.Errorf("%w: bet %d is not positive", settle.ErrValidation, g.Bet)
	}
	if g.PenaltyPayout < 0 {
		return fmt.Errorf("%w: penalty payout %d is negative", settle.ErrValidation, g.PenaltyPayout)
	}
	if _, err := tm.Rules(ctx, g); err != nil {
		return err
	}

	for _, p := range g.Players {
		p.Rank = nil
		p.IsActive = true
		p.PenaltyCount = 0
		p.GrossEntitlement = 0
		p.AssignedUnits = 0
		p.ResidualUnits = 0
		p.PotResult = 0
		p.Ledger.Clear()
	}
	g.Round++
	g.RoundStarted = true
	g.IsRunning = true
	g.Settled = false
	g.SettledAt = nil
	log.Printf("game %d: round %d started with %d players", g.GameID, g.Round, len(g.Players))
	return nil
}

// Eliminate knocks a player out.  Their rank is the number of players who
// were still in, so the first out of five finishes 5th.
func (tm *Mutator) Eliminate(g *model.Game, id string) error {
	if err := requirePhase(g, model.PhaseRunning, "eliminate a player from"); err != nil {
		return err
	}
	p, _, err := findPlayer(g, id)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return fmt.Errorf("%w: player %s is already out", settle.ErrInvalidState, p.ID)
	}
	active := g.ActivePlayers()
	if active <= 1 {
		return fmt.Errorf("%w: player %s is the last one in; end the round instead", settle.ErrInvalidState, p.ID)
	}
	p.SetRank(active)
	p.IsActive = false
	log.Printf("game %d: %s out in %s", g.GameID, p.Name, textutil.FormatPlace(active))
	return nil
}

// Reinstate undoes the most recent elimination.  Only the latest one can be
// undone, or the ranks of everyone eliminated since would be wrong.
func (tm *Mutator) Reinstate(g *model.Game, id string) error {
	if err := requirePhase(g, model.PhaseRunning, "reinstate a player in"); err != nil {
		return err
	}
	p, _, err := findPlayer(g, id)
	if err != nil {
		return err
	}
	if p.IsActive || p.Rank == nil {
		return fmt.Errorf("%w: player %s is still in", settle.ErrInvalidState, p.ID)
	}
	if *p.Rank != g.ActivePlayers()+1 {
		return fmt.Errorf("%w: player %s was not the last one eliminated", settle.ErrInvalidState, p.ID)
	}
	p.Rank = nil
	p.IsActive = true
	log.Printf("game %d: %s reinstated", g.GameID, p.Name)
	return nil
}

// RecordDeuce penalizes a player.  Every other player at the table is owed
// the penalty payout, whether or not they're still in.
func (tm *Mutator) RecordDeuce(g *model.Game, id string) error {
	if err := requirePhase(g, model.PhaseRunning, "record a deuce in"); err != nil {
		return err
	}
	p, _, err := findPlayer(g, id)
	if err != nil {
		return err
	}
	p.PenaltyCount++
	for _, other := range g.Players {
		if other.ID != p.ID {
			other.Ledger.Add(p.ID, g.PenaltyPayout)
		}
	}
	log.Printf("game %d: deuce #%d for %s", g.GameID, p.PenaltyCount, p.Name)
	return nil
}

// EndRound ranks the last player standing first and stops the round.
func (tm *Mutator) EndRound(g *model.Game) error {
	if err := requirePhase(g, model.PhaseRunning, "end the round of"); err != nil {
		return err
	}
	var last *model.Player
	for _, p := range g.Players {
		if !p.IsActive {
			continue
		}
		if last != nil {
			return fmt.Errorf("%w: %d players are still in", settle.ErrIncompleteRound, g.ActivePlayers())
		}
		last = p
	}
	if last == nil {
		return fmt.Errorf("%w: nobody is left in game %d", settle.ErrInvalidState, g.GameID)
	}
	last.SetRank(1)
	g.IsRunning = false
	log.Printf("game %d: round %d won by %s", g.GameID, g.Round, last.Name)
	return nil
}

// Settle settles the current round, or replays the statement if it was
// already settled.
func (tm *Mutator) Settle(ctx context.Context, g *model.Game) (*model.Statement, error) {
	if g.Settled {
		return tm.settler.Settle(g, nil)
	}
	if g.Phase() == model.PhaseNotStarted {
		return nil, fmt.Errorf("%w: game %d has no round to settle", settle.ErrInvalidState, g.GameID)
	}
	var rules paytable.Rules
	if !g.IsRunning {
		var err error
		if rules, err = tm.Rules(ctx, g); err != nil {
			return nil, err
		}
	}
	return tm.settler.Settle(g, rules)
}

// Reset finishes the round.  A settled round's residuals become the next
// round's carry; an unsettled round is simply abandoned, and its carry stays
// as it was.
func (tm *Mutator) Reset(g *model.Game) error {
	switch g.Phase() {
	case model.PhaseEnded, model.PhaseSettled:
	default:
		return fmt.Errorf("%w: can't reset game %d while %s", settle.ErrInvalidState, g.GameID, g.Phase())
	}
	for _, p := range g.Players {
		if g.Settled {
			p.CarryUnits = p.ResidualUnits
		}
		p.Rank = nil
		p.IsActive = false
		p.GrossEntitlement = 0
		p.AssignedUnits = 0
		p.ResidualUnits = 0
		p.PotResult = 0
		p.Ledger.Clear()
	}
	g.RoundStarted = false
	g.IsRunning = false
	g.Settled = false
	g.SettledAt = nil
	log.Printf("game %d: round %d reset", g.GameID, g.Round)
	return nil
}

// PayoutText describes what each place pays for the players seated, one
// place per line.
func (tm *Mutator) PayoutText(ctx context.Context, g *model.Game) (string, error) {
	rules, err := tm.Rules(ctx, g)
	if err != nil {
		return "", err
	}
	var lines []string
	for place := 1; place <= len(g.Players); place++ {
		pct := rules.Percentage(place)
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", textutil.FormatPlace(place), textutil.FormatMultiplier(pct), textutil.FormatUnits(pct, g.Bet)))
	}
	return strings.Join(lines, "\n"), nil
}
