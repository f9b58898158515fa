package dbcache

import (
	"context"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/state"
	"github.com/ts4z/deuces/varz"
)

var (
	gameStorageCacheHits            = varz.NewInt("gameStorageCacheHits")
	gameStorageCacheMisses          = varz.NewInt("gameStorageCacheMisses")
	gameStorageCacheDuplicateUpdate = varz.NewInt("gameStorageCacheDuplicateUpdate")
)

// GameStorage is a read-through LRU cache in front of another GameStorage.
// Cached games are never handed out directly; callers get copies they're free
// to mutate.
//
// Note that this assumes it is the only writer.  A stale entry is harmless
// for writes, since the optimistic lock catches it, but reads may lag.
type GameStorage struct {
	cache *lru.Cache[int64, *model.Game]
	lock  sync.Mutex
	next  state.GameStorage
}

var _ state.GameStorage = (*GameStorage)(nil)

func NewGameStorage(size int, next state.GameStorage) *GameStorage {
	cache, err := lru.New[int64, *model.Game](size)
	if err != nil {
		log.Fatalf("Failed to create GameStorage cache: %v", err)
	}
	return &GameStorage{
		cache: cache,
		next:  next,
	}
}

func (s *GameStorage) Close() {
	s.next.Close()
}

// CreateGame implements state.GameStorage.
func (s *GameStorage) CreateGame(ctx context.Context, g *model.Game) (int64, error) {
	return s.next.CreateGame(ctx, g)
}

// DeleteGame implements state.GameStorage.
func (s *GameStorage) DeleteGame(ctx context.Context, id int64) error {
	s.cache.Remove(id)
	return s.next.DeleteGame(ctx, id)
}

// FetchOverview implements state.GameStorage.  It isn't cached.
func (s *GameStorage) FetchOverview(ctx context.Context) (*model.Overview, error) {
	return s.next.FetchOverview(ctx)
}

// CacheInvalidate drops the cached game if it's no newer than version.
func (s *GameStorage) CacheInvalidate(_ context.Context, id int64, version int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if g, ok := s.cache.Get(id); ok {
		if g.OptimisticLock <= version {
			s.cache.Remove(id)
		}
	}
}

func (s *GameStorage) cacheStore(g *model.Game) {
	id := g.GameID
	s.lock.Lock()
	defer s.lock.Unlock()
	cached, ok := s.cache.Get(id)
	if ok {
		if cached.OptimisticLock > g.OptimisticLock {
			log.Printf("cache: have version %d, incoming %d, ignoring", cached.OptimisticLock, g.OptimisticLock)
			return
		} else if cached.OptimisticLock == g.OptimisticLock {
			gameStorageCacheDuplicateUpdate.Add(1)
			log.Printf("debug: cache: already have version %d, ignoring", cached.OptimisticLock)
			return
		}
	}
	s.cache.Add(id, g.Clone())
}

func (s *GameStorage) FetchGame(ctx context.Context, id int64) (*model.Game, error) {
	if g, ok := s.cache.Get(id); ok {
		gameStorageCacheHits.Add(1)
		return g.Clone(), nil
	}

	gameStorageCacheMisses.Add(1)
	g, err := s.next.FetchGame(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("debug: cache store from fetch game id=%d version=%d", g.GameID, g.OptimisticLock)
	s.cacheStore(g)
	return g, nil
}

func (s *GameStorage) SaveGame(ctx context.Context, g *model.Game) error {
	err := s.next.SaveGame(ctx, g)
	if err != nil {
		// Whatever we have is probably stale.
		s.CacheInvalidate(ctx, g.GameID, g.OptimisticLock)
		return err
	}
	log.Printf("debug: cache store from save game id=%d version=%d", g.GameID, g.OptimisticLock)
	s.cacheStore(g)
	return nil
}
