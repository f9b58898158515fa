package gossip

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ts4z/deuces/model"
)

// A listen request eventually results in at most one write to one of these
// channels.  Both must have room for it; nobody waits on a slow reader.
type channels struct {
	errCh  chan<- error
	gameCh chan<- *model.Game
}

// GameGossiper provides a tattletale for changes to games.
type GameGossiper struct {
	listeners   map[int64][]channels
	listenersMu sync.Mutex
	next        Fetcher
}

func NewGameGossiper(next Fetcher) *GameGossiper {
	return &GameGossiper{
		listeners: make(map[int64][]channels),
		next:      next,
	}
}

// ListenGameVersion arranges for the game to be sent on gameCh as soon as its
// version differs from version, which may be right away.  Errors, including
// the game being deleted, go to errCh.  Both channels need a buffer of one.
func (s *GameGossiper) ListenGameVersion(ctx context.Context, id int64, version int64, errCh chan<- error, gameCh chan<- *model.Game) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	g, err := s.next.FetchGame(ctx, id)
	if err != nil {
		errCh <- fmt.Errorf("can't listen for changes: can't fetch %d: %w", id, err)
		return
	}

	if g.OptimisticLock != version {
		if g.OptimisticLock < version {
			// A client made this up, or we have a bug.
			log.Printf("can't happen: reported version %d is newer than stored version %d for game %d", version, g.OptimisticLock, id)
		}
		gameCh <- g
		return
	}

	log.Printf("debug: gossiper: client listening for game %d changes from version %d", id, version)
	s.listeners[id] = append(s.listeners[id], channels{errCh, gameCh})
}

// Listeners reports how many clients are waiting on a game.
func (s *GameGossiper) Listeners(id int64) int {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return len(s.listeners[id])
}

func (s *GameGossiper) takeListeners(id int64) []channels {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	listeners := s.listeners[id]
	delete(s.listeners, id)
	return listeners
}

func (s *GameGossiper) NotifyUpdated(g *model.Game) {
	listeners := s.takeListeners(g.GameID)
	for _, chs := range listeners {
		chs.gameCh <- g.Clone()
	}
	if len(listeners) > 0 {
		log.Printf("notified %d listeners of game %d version %d change", len(listeners), g.GameID, g.OptimisticLock)
	}
}

func (s *GameGossiper) NotifyDeleted(id int64) {
	for _, chs := range s.takeListeners(id) {
		chs.errCh <- fmt.Errorf("%w: game %d has been deleted", model.ErrNoSuchGame, id)
	}
}
