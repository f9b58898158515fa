package gossip

import (
	"context"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/state"
)

// GameStorage intercepts writes and tells the gossiper about them.
type GameStorage struct {
	gossiper *GameGossiper
	next     state.GameStorage
}

func NewGameStorage(storage state.GameStorage, g *GameGossiper) *GameStorage {
	return &GameStorage{
		next:     storage,
		gossiper: g,
	}
}

var _ state.GameStorage = (*GameStorage)(nil)

func (s *GameStorage) Close() {
	s.next.Close()
}

// CreateGame implements state.GameStorage.
func (s *GameStorage) CreateGame(ctx context.Context, g *model.Game) (int64, error) {
	return s.next.CreateGame(ctx, g)
}

// DeleteGame implements state.GameStorage.
func (s *GameStorage) DeleteGame(ctx context.Context, id int64) error {
	if err := s.next.DeleteGame(ctx, id); err != nil {
		return err
	}
	s.gossiper.NotifyDeleted(id)
	return nil
}

// FetchOverview implements state.GameStorage.
func (s *GameStorage) FetchOverview(ctx context.Context) (*model.Overview, error) {
	return s.next.FetchOverview(ctx)
}

// FetchGame implements state.GameStorage.
func (s *GameStorage) FetchGame(ctx context.Context, id int64) (*model.Game, error) {
	return s.next.FetchGame(ctx, id)
}

// SaveGame implements state.GameStorage.
func (s *GameStorage) SaveGame(ctx context.Context, g *model.Game) error {
	if err := s.next.SaveGame(ctx, g); err != nil {
		return err
	}
	s.gossiper.NotifyUpdated(g)
	return nil
}
