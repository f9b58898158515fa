package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/state"
)

// FakeStorage keeps games in memory.  It behaves like the database: it
// stores and hands out copies, and enforces the optimistic lock.
type FakeStorage struct {
	rw     sync.Mutex
	nextID int64
	games  map[int64]*model.Game
}

var _ state.GameStorage = (*FakeStorage)(nil)

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		nextID: 1,
		games:  map[int64]*model.Game{},
	}
}

func (s *FakeStorage) Lock() func() {
	s.rw.Lock()
	return func() { s.rw.Unlock() }
}

func (s *FakeStorage) Close() {}

func (s *FakeStorage) FetchOverview(_ context.Context) (*model.Overview, error) {
	unlock := s.Lock()
	defer unlock()
	ids := make([]int64, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	slugs := []model.GameSlug{}
	for _, id := range ids {
		slugs = append(slugs, state.Slug(id, s.games[id]))
	}
	return &model.Overview{Slugs: slugs}, nil
}

func (s *FakeStorage) CreateGame(_ context.Context, g *model.Game) (int64, error) {
	unlock := s.Lock()
	defer unlock()
	id := s.nextID
	s.nextID++
	g.GameID = id
	g.OptimisticLock = 0
	s.games[id] = g.Clone()
	return id, nil
}

func (s *FakeStorage) FetchGame(_ context.Context, id int64) (*model.Game, error) {
	unlock := s.Lock()
	defer unlock()
	if g, ok := s.games[id]; ok {
		return g.Clone(), nil
	} else {
		return nil, he.New(404, fmt.Errorf("%w: id %d", model.ErrNoSuchGame, id))
	}
}

func (s *FakeStorage) SaveGame(_ context.Context, g *model.Game) error {
	unlock := s.Lock()
	defer unlock()
	stored, ok := s.games[g.GameID]
	if !ok {
		return he.New(404, fmt.Errorf("%w: id %d", model.ErrNoSuchGame, g.GameID))
	}
	if stored.OptimisticLock != g.OptimisticLock {
		return he.New(409, fmt.Errorf("%w: game %d version %d, stored %d", state.ErrOptimisticLock, g.GameID, g.OptimisticLock, stored.OptimisticLock))
	}
	g.OptimisticLock++
	s.games[g.GameID] = g.Clone()
	return nil
}

func (s *FakeStorage) DeleteGame(_ context.Context, id int64) error {
	unlock := s.Lock()
	defer unlock()
	if _, ok := s.games[id]; !ok {
		return he.New(404, fmt.Errorf("%w: id %d", model.ErrNoSuchGame, id))
	}
	delete(s.games, id)
	return nil
}
