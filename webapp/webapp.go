package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ts4z/deuces/action"
	"github.com/ts4z/deuces/dep"
	"github.com/ts4z/deuces/gossip"
	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/middleware"
	"github.com/ts4z/deuces/model"
	"github.com/ts4z/deuces/protocol"
	"github.com/ts4z/deuces/state"
	"github.com/ts4z/deuces/urlpath"
	"github.com/ts4z/deuces/varz"
)

var (
	clientClosedWhileWatching = varz.NewInt("clientClosedWhileWatching")
	timedOutWhileWatching     = varz.NewInt("timedOutWhileWatching")
	errorWatching             = varz.NewInt("errorWatching")
	watchNotifiedClient       = varz.NewInt("watchNotifiedClient")
	settlements               = varz.NewInt("settlements")
)

const (
	defaultWatchTimeout = time.Hour
	maxBodyBytes        = 1 << 16
)

type nower interface {
	Now() time.Time
}

// Config holds the configuration for creating a new App.
type Config struct {
	Actor     *action.Actor
	Paytables state.PaytableStorage
	Gossiper  *gossip.GameGossiper
	Clock     nower

	// AllowedOrigins are passed to CORS.  Empty means any origin.
	AllowedOrigins []string
	// WatchTimeout bounds a long poll; zero means an hour.
	WatchTimeout time.Duration
}

// App is the JSON API over games.
type App struct {
	// dependencies
	actor     *action.Actor
	paytables state.PaytableStorage
	gossiper  *gossip.GameGossiper
	clock     nower

	watchTimeout time.Duration

	// internals
	router  chi.Router
	handler http.Handler
}

// New creates a new App with the given configuration.
func New(config *Config) *App {
	app := &App{
		actor:        dep.Required(config.Actor),
		paytables:    dep.Required(config.Paytables),
		gossiper:     dep.Required(config.Gossiper),
		clock:        dep.Required(config.Clock),
		watchTimeout: config.WatchTimeout,
		router:       chi.NewRouter(),
	}
	if app.watchTimeout <= 0 {
		app.watchTimeout = defaultWatchTimeout
	}

	// Stack the handlers together.
	app.router.Use(chimw.RequestID)
	app.router.Use(middleware.Logging(app.clock))
	app.router.Use(chimw.Recoverer)

	corsMW := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
	})
	for _, origin := range config.AllowedOrigins {
		log.Printf("CORS allowing origin %s", origin)
	}
	app.handler = corsMW.Handler(app.router)

	app.InstallHandlers()
	return app
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) handleFunc(method, pattern string, handler func(context.Context, http.ResponseWriter, *http.Request)) {
	app.router.MethodFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		handler(r.Context(), w, r)
	})
}

func (app *App) handleFuncTakingID(method, pattern string, handler func(context.Context, int64, http.ResponseWriter, *http.Request)) {
	app.handleFunc(method, pattern, func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		id, err := urlpath.IDPathValue(r)
		if err != nil {
			he.SendErrorToHTTPClient(w, "parse url", err)
			return
		}
		handler(ctx, id, w, r)
	})
}

func (app *App) handleFuncTakingPlayer(method, pattern string, handler func(context.Context, int64, string, http.ResponseWriter, *http.Request)) {
	app.handleFuncTakingID(method, pattern, func(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
		player, err := urlpath.PlayerPathValue(r)
		if err != nil {
			he.SendErrorToHTTPClient(w, "parse url", err)
			return
		}
		handler(ctx, id, player, w, r)
	})
}

// gameAction adapts the Actor's game-returning operations.
func (app *App) gameAction(what string, f func(context.Context, int64) (*model.Game, error)) func(context.Context, int64, http.ResponseWriter, *http.Request) {
	return func(ctx context.Context, id int64, w http.ResponseWriter, _ *http.Request) {
		g, err := f(ctx, id)
		if err != nil {
			he.SendErrorToHTTPClient(w, what, err)
			return
		}
		sendJSON(w, http.StatusOK, g)
	}
}

func (app *App) playerAction(what string, f func(context.Context, int64, string) (*model.Game, error)) func(context.Context, int64, string, http.ResponseWriter, *http.Request) {
	return func(ctx context.Context, id int64, player string, w http.ResponseWriter, _ *http.Request) {
		g, err := f(ctx, id, player)
		if err != nil {
			he.SendErrorToHTTPClient(w, what, err)
			return
		}
		sendJSON(w, http.StatusOK, g)
	}
}

func sendJSON(w http.ResponseWriter, code int, v any) {
	bytes, err := json.Marshal(v)
	if err != nil {
		he.SendErrorToHTTPClient(w, "marshal response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(protocol.Header, strconv.Itoa(protocol.Version))
	w.WriteHeader(code)
	if _, err := w.Write(bytes); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return he.HTTPCodedErrorf(400, "decoding json: %w", err)
	}
	return nil
}

func (app *App) handleListGames(ctx context.Context, w http.ResponseWriter, _ *http.Request) {
	overview, err := app.actor.FetchOverview(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch games", err)
		return
	}
	sendJSON(w, http.StatusOK, overview)
}

func (app *App) handleCreateGame(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var params action.GameParams
	if err := decodeBody(w, r, &params); err != nil {
		he.SendErrorToHTTPClient(w, "create game", err)
		return
	}
	g, err := app.actor.CreateGame(ctx, params)
	if err != nil {
		he.SendErrorToHTTPClient(w, "create game", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/games/%d", g.GameID))
	sendJSON(w, http.StatusCreated, g)
}

func (app *App) handleDeleteGame(ctx context.Context, id int64, w http.ResponseWriter, _ *http.Request) {
	if err := app.actor.DeleteGame(ctx, id); err != nil {
		he.SendErrorToHTTPClient(w, "delete game", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *App) handleAddPlayer(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string
	}
	if err := decodeBody(w, r, &req); err != nil {
		he.SendErrorToHTTPClient(w, "add player", err)
		return
	}
	p, err := app.actor.AddPlayer(ctx, id, req.Name)
	if err != nil {
		he.SendErrorToHTTPClient(w, "add player", err)
		return
	}
	sendJSON(w, http.StatusCreated, p)
}

func (app *App) handleSettle(ctx context.Context, id int64, w http.ResponseWriter, _ *http.Request) {
	st, err := app.actor.Settle(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "settle", err)
		return
	}
	settlements.Add(1)
	sendJSON(w, http.StatusOK, st)
}

func (app *App) handleStatement(ctx context.Context, id int64, w http.ResponseWriter, _ *http.Request) {
	st, err := app.actor.Statement(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch statement", err)
		return
	}
	sendJSON(w, http.StatusOK, st)
}

func (app *App) handlePayouts(ctx context.Context, id int64, w http.ResponseWriter, _ *http.Request) {
	text, err := app.actor.Payouts(ctx, id)
	if err != nil {
		he.SendErrorToHTTPClient(w, "describe payouts", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"Payouts": text})
}

func handleRobotsTXT(_ context.Context, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, "User-agent: *\r\nDisallow: /\r\n")
}

func (app *App) handleListPaytables(ctx context.Context, w http.ResponseWriter, _ *http.Request) {
	slugs, err := app.paytables.FetchPaytableSlugs(ctx)
	if err != nil {
		he.SendErrorToHTTPClient(w, "fetch paytable slugs", err)
		return
	}
	sendJSON(w, http.StatusOK, slugs)
}

// handleWatch blocks until the game's version differs from the one the
// client has, then sends the game.  Without a version, or with a protocol
// other than ours, the game is sent right away.
func (app *App) handleWatch(ctx context.Context, id int64, w http.ResponseWriter, r *http.Request) {
	version := int64(-1)
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			he.SendErrorToHTTPClient(w, "watch game", he.HTTPCodedErrorf(400, "bad version %q: %v", raw, err))
			return
		}
		version = v
	}
	if raw := r.URL.Query().Get("protocol"); raw != "" && raw != strconv.Itoa(protocol.Version) {
		// trash the version number; the client needs to reload anyway
		version = -1
	}

	errCh := make(chan error, 1)
	gameCh := make(chan *model.Game, 1)
	timeoutCh := time.After(app.watchTimeout)
	go app.gossiper.ListenGameVersion(ctx, id, version, errCh, gameCh)
	select {
	case err := <-errCh:
		errorWatching.Add(1)
		he.SendErrorToHTTPClient(w, "watch game", he.Classify(err))
	case g := <-gameCh:
		watchNotifiedClient.Add(1)
		sendJSON(w, http.StatusOK, g)
	case <-timeoutCh:
		timedOutWhileWatching.Add(1)
		he.SendErrorToHTTPClient(w, "wait for game update",
			he.HTTPCodedErrorf(http.StatusGatewayTimeout, "timeout"))
	case <-ctx.Done():
		clientClosedWhileWatching.Add(1)
		log.Printf("client closed connection while watching game %d", id)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
	}
}

// InstallHandlers registers all HTTP routes.
func (app *App) InstallHandlers() {
	app.handleFunc(http.MethodGet, "/api/games", app.handleListGames)
	app.handleFunc(http.MethodPost, "/api/games", app.handleCreateGame)
	app.handleFuncTakingID(http.MethodGet, "/api/games/{id}", app.gameAction("fetch game", app.actor.FetchGame))
	app.handleFuncTakingID(http.MethodDelete, "/api/games/{id}", app.handleDeleteGame)

	app.handleFuncTakingID(http.MethodPost, "/api/games/{id}/players", app.handleAddPlayer)
	app.handleFuncTakingPlayer(http.MethodDelete, "/api/games/{id}/players/{player}", app.playerAction("remove player", app.actor.RemovePlayer))
	app.handleFuncTakingPlayer(http.MethodPost, "/api/games/{id}/players/{player}/eliminate", app.playerAction("eliminate player", app.actor.Eliminate))
	app.handleFuncTakingPlayer(http.MethodPost, "/api/games/{id}/players/{player}/reinstate", app.playerAction("reinstate player", app.actor.Reinstate))
	app.handleFuncTakingPlayer(http.MethodPost, "/api/games/{id}/players/{player}/deuce", app.playerAction("record deuce", app.actor.RecordDeuce))

	app.handleFuncTakingID(http.MethodPost, "/api/games/{id}/start", app.gameAction("start round", app.actor.StartRound))
	app.handleFuncTakingID(http.MethodPost, "/api/games/{id}/end", app.gameAction("end round", app.actor.EndRound))
	app.handleFuncTakingID(http.MethodPost, "/api/games/{id}/settle", app.handleSettle)
	app.handleFuncTakingID(http.MethodPost, "/api/games/{id}/reset", app.gameAction("reset round", app.actor.Reset))
	app.handleFuncTakingID(http.MethodGet, "/api/games/{id}/statement", app.handleStatement)
	app.handleFuncTakingID(http.MethodGet, "/api/games/{id}/payouts", app.handlePayouts)
	app.handleFuncTakingID(http.MethodGet, "/api/games/{id}/watch", app.handleWatch)

	app.handleFunc(http.MethodGet, "/api/paytables", app.handleListPaytables)

	app.handleFunc(http.MethodGet, "/robots.txt", handleRobotsTXT)
	app.router.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}

// Wrapper to just return the input context.
func contextualizer(ctx context.Context) func(net.Listener) context.Context {
	return func(_ net.Listener) context.Context {
		return ctx
	}
}

// Serve runs the HTTP server on the given listen address until it fails or
// ctx is cancelled.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	server := &http.Server{
		Addr:         listenAddress,
		Handler:      app.handler,
		BaseContext:  contextualizer(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 1*time.Hour + time.Minute,
		IdleTimeout:  12 * time.Hour,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		log.Printf("server exited: %v", err)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("warning: shutdown: %v", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
