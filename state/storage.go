package state

// package state manages persistence.

import (
	"context"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/paytable"
)

type Closer interface {
	Close()
}

// GameStorage describes storage's view of games.  SaveGame fails if the
// game's OptimisticLock doesn't match what's stored, and bumps it on
// success.
type GameStorage interface {
	Closer

	FetchOverview(ctx context.Context) (*model.Overview, error)

	CreateGame(ctx context.Context, g *model.Game) (int64, error)
	FetchGame(ctx context.Context, id int64) (*model.Game, error)
	SaveGame(ctx context.Context, g *model.Game) error
	DeleteGame(ctx context.Context, id int64) error
}

type PaytableStorage interface {
	Closer

	FetchPaytableByID(ctx context.Context, id int64) (*paytable.Paytable, error)
	FetchPaytableSlugs(ctx context.Context) ([]*paytable.PaytableSlug, error)
}

// Slug summarizes a game for the overview.
func Slug(id int64, g *model.Game) model.GameSlug {
	return model.GameSlug{
		GameID:  id,
		Name:    g.Name,
		Players: len(g.Players),
		Phase:   g.Phase(),
	}
}
