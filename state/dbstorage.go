package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/deuces/dbnotify"
	"github.com/ts4z/deuces/dbutil"
	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/model"
)

// ErrOptimisticLock means someone else saved the game since it was fetched.
var ErrOptimisticLock = errors.New("optimistic lock failure")

var schema = map[dbutil.Dialect][]string{
	dbutil.Postgres: {
		`CREATE TABLE IF NOT EXISTS games (
			game_id BIGSERIAL PRIMARY KEY,
			optimistic_lock BIGINT NOT NULL DEFAULT 0,
			model_data JSONB NOT NULL
		)`,
	},
	dbutil.SQLite: {
		`CREATE TABLE IF NOT EXISTS games (
			game_id INTEGER PRIMARY KEY AUTOINCREMENT,
			optimistic_lock INTEGER NOT NULL DEFAULT 0,
			model_data TEXT NOT NULL
		)`,
	},
}

// DBStorage keeps each game as a JSON blob in the games table.  The game ID
// and optimistic lock live in their own columns and override whatever the
// blob says.
//
// On Postgres every write is also announced on dbnotify.GamesChannel, tagged
// with Origin so this process can tell its own writes apart.
type DBStorage struct {
	db     *dbutil.DB
	origin string
}

var _ GameStorage = &DBStorage{}

func NewDBStorage(db *dbutil.DB) *DBStorage {
	return &DBStorage{db: db, origin: uuid.NewString()}
}

// DB exposes the handle, for the notification listener.
func (s *DBStorage) DB() *dbutil.DB {
	return s.db
}

func (s *DBStorage) Origin() string {
	return s.origin
}

// notify announces a change.  Failure only costs other servers a stale
// cache, so it's logged and not returned.
func (s *DBStorage) notify(ctx context.Context, event *dbnotify.NotificationEvent) {
	if s.db.Dialect != dbutil.Postgres {
		return
	}
	event.Table = "games"
	event.Origin = s.origin
	payload, err := dbnotify.Payload(event)
	if err != nil {
		log.Printf("warning: can't encode notification: %v", err)
		return
	}
	if _, err := s.exec(ctx, "SELECT pg_notify(?, ?)", dbnotify.GamesChannel, payload); err != nil {
		log.Printf("warning: can't notify %s: %v", dbnotify.GamesChannel, err)
	}
}

func (s *DBStorage) Close() {
	s.db.Close()
}

// OpenDBStorage connects to the configured database and migrates it.
func OpenDBStorage(ctx context.Context) (*DBStorage, error) {
	db, err := dbutil.Connect()
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}
	s := NewDBStorage(db)
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it isn't there.
func (s *DBStorage) Migrate(ctx context.Context) error {
	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	for _, stmt := range schema[s.db.Dialect] {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

func (s *DBStorage) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.db.Dialect.Rebind(query), args...)
}

func (s *DBStorage) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Dialect.Rebind(query), args...)
}

func (s *DBStorage) FetchOverview(ctx context.Context) (*model.Overview, error) {
	rows, err := s.query(ctx, "SELECT game_id, model_data FROM games ORDER BY game_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overview := &model.Overview{Slugs: []model.GameSlug{}}
	for rows.Next() {
		var id int64
		var bytes []byte

		if err := rows.Scan(&id, &bytes); err != nil {
			log.Printf("warning: row scan failed: %v", err)
			continue
		}
		g := model.Game{}
		if err := json.Unmarshal(bytes, &g); err != nil {
			log.Printf("warning: game %d: JSON unmarshal failed: %v", id, err)
			continue
		}
		overview.Slugs = append(overview.Slugs, Slug(id, &g))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return overview, nil
}

func (s *DBStorage) CreateGame(ctx context.Context, g *model.Game) (int64, error) {
	bytes, err := json.Marshal(g)
	if err != nil {
		return 0, err
	}

	tx, err := dbutil.NewTx(ctx, s.db, nil)
	if err != nil {
		return 0, err
	}
	defer tx.MaybeRollback()

	var id int64
	if err := tx.QueryRow(ctx,
		"INSERT INTO games (optimistic_lock, model_data) VALUES (0, ?) RETURNING game_id",
		string(bytes)).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	g.GameID = id
	g.OptimisticLock = 0
	log.Printf("created game %d", id)
	return id, nil
}

func (s *DBStorage) FetchGame(ctx context.Context, id int64) (*model.Game, error) {
	rows, err := s.query(ctx, "SELECT optimistic_lock, model_data FROM games WHERE game_id=?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var g *model.Game

	for rows.Next() {
		if g != nil {
			return nil, fmt.Errorf("can't happen: duplicate game id %d", id)
		}

		var lock int64
		var bytes []byte

		if err := rows.Scan(&lock, &bytes); err != nil {
			return nil, err
		}

		g = &model.Game{}
		if err := json.Unmarshal(bytes, g); err != nil {
			return nil, fmt.Errorf("game %d: %w", id, err)
		}

		// These come from the database row, not the JSON.
		g.GameID = id
		g.OptimisticLock = lock
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if g == nil {
		return nil, he.New(404, fmt.Errorf("%w: id %d", model.ErrNoSuchGame, id))
	}

	return g, nil
}

// SaveGame writes g if nobody else has since it was fetched, and advances
// g.OptimisticLock to match what's stored.
func (s *DBStorage) SaveGame(ctx context.Context, g *model.Game) error {
	bytes, err := json.Marshal(g)
	if err != nil {
		return err
	}
	result, err := s.exec(ctx,
		"UPDATE games SET optimistic_lock=?, model_data=? WHERE game_id=? AND optimistic_lock=?",
		g.OptimisticLock+1,
		string(bytes),
		g.GameID,
		g.OptimisticLock)
	if err != nil {
		log.Printf("update failed: %v", err)
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return he.New(409, fmt.Errorf("%w: game %d version %d, %d rows affected", ErrOptimisticLock, g.GameID, g.OptimisticLock, n))
	}

	g.OptimisticLock++
	log.Printf("debug: wrote game %d version %d", g.GameID, g.OptimisticLock)
	s.notify(ctx, &dbnotify.NotificationEvent{OnID: g.GameID, Version: g.OptimisticLock})
	return nil
}

func (s *DBStorage) DeleteGame(ctx context.Context, id int64) error {
	result, err := s.exec(ctx, "DELETE FROM games WHERE game_id=?", id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return he.New(404, fmt.Errorf("%w: id %d", model.ErrNoSuchGame, id))
	}
	log.Printf("deleted game %d", id)
	s.notify(ctx, &dbnotify.NotificationEvent{OnID: id, Deleted: true})
	return nil
}
