package action

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/round"
	"github.com/ts4z/deuces/settle"
	"github.com/ts4z/deuces/state"
)

// Actor runs each change to a game as fetch, mutate, save, one at a time per
// game.  If the mutation fails the fetched copy is thrown away, so a failed
// settlement never reaches storage.
type Actor struct {
	storage state.GameStorage
	tm      *round.Mutator
	timeout time.Duration

	locksMu sync.Mutex
	locks   map[int64]chan struct{}
}

func New(s state.GameStorage, tm *round.Mutator, timeout time.Duration) *Actor {
	return &Actor{
		storage: s,
		tm:      tm,
		timeout: timeout,
		locks:   map[int64]chan struct{}{},
	}
}

// lock takes the game's critical section, giving up when ctx does.
func (a *Actor) lock(ctx context.Context, id int64) (func(), error) {
	a.locksMu.Lock()
	sem, ok := a.locks[id]
	if !ok {
		sem = make(chan struct{}, 1)
		a.locks[id] = sem
	}
	a.locksMu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, he.New(503, fmt.Errorf("game %d is busy: %w", id, ctx.Err()))
	}
}

func (a *Actor) mutate(ctx context.Context, id int64, f func(g *model.Game) error) (*model.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	unlock, err := a.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := a.storage.FetchGame(ctx, id)
	if err != nil {
		return nil, he.Classify(err)
	}
	g = g.Clone()

	if err := f(g); err != nil {
		return nil, he.Classify(err)
	}
	if err := a.storage.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GameParams are the settings chosen when a game is created.
type GameParams struct {
	Name          string
	Bet           int64
	PenaltyPayout int64
	PaytableID    int64
}

func (a *Actor) CreateGame(ctx context.Context, p GameParams) (*model.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		return nil, he.Classify(fmt.Errorf("%w: game needs a name", settle.ErrValidation))
	case p.Bet <= 0:
		return nil, he.Classify(fmt.Errorf("%w: bet %d is not positive", settle.ErrValidation, p.Bet))
	case p.PenaltyPayout < 0:
		return nil, he.Classify(fmt.Errorf("%w: penalty payout %d is negative", settle.ErrValidation, p.PenaltyPayout))
	}

	g := &model.Game{
		Name:          name,
		Bet:           p.Bet,
		PenaltyPayout: p.PenaltyPayout,
		PaytableID:    p.PaytableID,
	}
	if _, err := a.tm.Paytable(ctx, g.PaytableID); err != nil {
		return nil, he.Classify(err)
	}
	if _, err := a.storage.CreateGame(ctx, g); err != nil {
		return nil, err
	}
	log.Printf("created game %d %q", g.GameID, g.Name)
	return g, nil
}

func (a *Actor) FetchGame(ctx context.Context, id int64) (*model.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	g, err := a.storage.FetchGame(ctx, id)
	return g, he.Classify(err)
}

func (a *Actor) FetchOverview(ctx context.Context) (*model.Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.storage.FetchOverview(ctx)
}

func (a *Actor) DeleteGame(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	unlock, err := a.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return he.Classify(a.storage.DeleteGame(ctx, id))
}

func (a *Actor) AddPlayer(ctx context.Context, id int64, name string) (*model.Player, error) {
	var added *model.Player
	_, err := a.mutate(ctx, id, func(g *model.Game) error {
		var err error
		added, err = a.tm.AddPlayer(g, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (a *Actor) RemovePlayer(ctx context.Context, id int64, playerID string) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.RemovePlayer(g, playerID)
	})
}

func (a *Actor) Eliminate(ctx context.Context, id int64, playerID string) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.Eliminate(g, playerID)
	})
}

func (a *Actor) Reinstate(ctx context.Context, id int64, playerID string) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.Reinstate(g, playerID)
	})
}

func (a *Actor) RecordDeuce(ctx context.Context, id int64, playerID string) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.RecordDeuce(g, playerID)
	})
}

func (a *Actor) StartRound(ctx context.Context, id int64) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.StartRound(ctx, g)
	})
}

func (a *Actor) EndRound(ctx context.Context, id int64) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.EndRound(g)
	})
}

func (a *Actor) Reset(ctx context.Context, id int64) (*model.Game, error) {
	return a.mutate(ctx, id, func(g *model.Game) error {
		return a.tm.Reset(g)
	})
}

// Settle settles the game's round.  A replay doesn't write anything.
func (a *Actor) Settle(ctx context.Context, id int64) (*model.Statement, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	unlock, err := a.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	g, err := a.storage.FetchGame(ctx, id)
	if err != nil {
		return nil, he.Classify(err)
	}
	g = g.Clone()
	replay := g.Settled

	st, err := a.tm.Settle(ctx, g)
	if err != nil {
		return nil, he.Classify(err)
	}
	if replay {
		return st, nil
	}
	if err := a.storage.SaveGame(ctx, g); err != nil {
		return nil, err
	}
	return st, nil
}

// Statement returns the settled round's statement without changing anything.
func (a *Actor) Statement(ctx context.Context, id int64) (*model.Statement, error) {
	g, err := a.FetchGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !g.Settled {
		return nil, he.Classify(fmt.Errorf("%w: game %d is not settled", settle.ErrInvalidState, id))
	}
	return settle.Statement(g), nil
}

// Payouts describes what each place pays at the game's current size.
func (a *Actor) Payouts(ctx context.Context, id int64) (string, error) {
	g, err := a.FetchGame(ctx, id)
	if err != nil {
		return "", err
	}
	text, err := a.tm.PayoutText(ctx, g)
	return text, he.Classify(err)
}
