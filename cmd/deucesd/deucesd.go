package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ts4z/deuces/action"
	"github.com/ts4z/deuces/config"
	"github.com/ts4z/deuces/dbcache"
	"github.com/ts4z/deuces/dbnotify"
	"github.com/ts4z/deuces/dbutil"
	"github.com/ts4z/deuces/gossip"
	"github.com/ts4z/deuces/round"
	"github.com/ts4z/deuces/settle"
	"github.com/ts4z/deuces/state"
	"github.com/ts4z/deuces/ts"
	"github.com/ts4z/deuces/webapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	config.Init()

	clock := ts.NewRealClock()

	tieBreak, err := settle.ParseTieBreak(config.TieBreak())
	if err != nil {
		log.Fatalf("bad tie_break: %v", err)
	}

	paytableStorage, err := state.NewDefaultPaytableStorage(config.PaytableDir())
	if err != nil {
		log.Fatalf("can't load paytables: %v", err)
	}

	dbStorage, err := state.OpenDBStorage(ctx)
	if err != nil {
		log.Fatalf("can't configure database: %v", err)
	}

	// Gossip sits outside the cache so it sees the version the cache saved.
	cached := dbcache.NewGameStorage(config.CacheSize(), dbStorage)
	gossiper := gossip.NewGameGossiper(cached)
	storage := gossip.NewGameStorage(cached, gossiper)
	defer storage.Close()

	if dbStorage.DB().Dialect == dbutil.Postgres {
		dispatcher := dbnotify.NewGameDispatcher(dbStorage.Origin(), cached, cached, gossiper)
		listener, err := dbnotify.NewDBNotifyListener(dbStorage.DB().DB, dispatcher)
		if err != nil {
			log.Fatalf("can't listen for database changes: %v", err)
		}
		go listener.ListenForever(ctx)
	}

	roundMutator := round.NewMutator(clock, paytableStorage, tieBreak)
	actor := action.New(storage, roundMutator, config.LockTimeout())

	app := webapp.New(&webapp.Config{
		Actor:          actor,
		Paytables:      paytableStorage,
		Gossiper:       gossiper,
		Clock:          clock,
		AllowedOrigins: config.AllowedOrigins(),
	})

	log.Printf("listening on %s", config.ListenAddress())
	if err := app.Serve(ctx, config.ListenAddress()); err != nil {
		log.Fatalf("can't serve: %v", err)
	}
}
