/*
package dbnotify provides a backchannel from the database to push changes to
games out to other processes.

Postgres only.  Every DBStorage write sends a NOTIFY on games_changes; each
server LISTENs, drops its cached copy, and wakes its own long-polling clients.
Writers tag events with their origin so they don't hear themselves.
*/
package dbnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ts4z/deuces/model"
)

const (
	sleepOnErrorTime = 5 * time.Second

	// GamesChannel is the NOTIFY channel for the games table.
	GamesChannel = "games_changes"
)

type NotificationEvent struct {
	Table   string
	OnID    int64
	Version int64
	Deleted bool `json:",omitempty"`
	Origin  string
}

// Payload encodes an event for pg_notify.
func Payload(event *NotificationEvent) (string, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parsePayload(payload string) (*NotificationEvent, error) {
	event := &NotificationEvent{}
	if err := json.Unmarshal([]byte(payload), event); err != nil {
		return nil, fmt.Errorf("can't unmarshal notification payload %q: %w", payload, err)
	}
	if event.Table == "" || event.OnID <= 0 {
		return nil, fmt.Errorf("notification payload %q names no row", payload)
	}
	return event, nil
}

type Consumer interface {
	TableName() string
	Consume(ctx context.Context, event *NotificationEvent)
}

type DBNotifyListener struct {
	db                  *sql.DB
	tableNameToConsumer map[string]Consumer
}

func NewDBNotifyListener(db *sql.DB, consumers ...Consumer) (*DBNotifyListener, error) {
	m := make(map[string]Consumer)
	for _, c := range consumers {
		tableName := c.TableName()
		if _, exists := m[tableName]; exists {
			return nil, fmt.Errorf("duplicate consumer for table %s", tableName)
		}
		m[tableName] = c
	}

	return &DBNotifyListener{db: db, tableNameToConsumer: m}, nil
}

// Listen holds one connection from the pool and dispatches notifications
// until ctx is done or the connection fails.
func (cl *DBNotifyListener) Listen(ctx context.Context) error {
	conn, err := cl.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var pgxConn *stdlib.Conn
	err = conn.Raw(func(driverConn any) error {
		c, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("driver connection is %T, not pgx", driverConn)
		}
		pgxConn = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get pgx connection: %w", err)
	}

	for table := range cl.tableNameToConsumer {
		channel := fmt.Sprintf("%s_changes", table)
		if _, err := pgxConn.Conn().Exec(ctx, "LISTEN "+channel); err != nil {
			return fmt.Errorf("failed to listen on channel %s: %w", channel, err)
		}
	}

	for {
		var notification *pgconn.Notification
		if nf, err := pgxConn.Conn().WaitForNotification(ctx); err == nil {
			notification = nf
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for notification: %w", err)
		}

		log.Printf("debug: received db notification %d %s", notification.PID, notification.Payload)

		event, err := parsePayload(notification.Payload)
		if err != nil {
			log.Printf("warning: %v", err)
			continue
		}
		cl.dispatch(ctx, event)
	}
}

func (cl *DBNotifyListener) dispatch(ctx context.Context, event *NotificationEvent) {
	consumer, ok := cl.tableNameToConsumer[event.Table]
	if !ok {
		log.Printf("no listener for table %s", event.Table)
		return
	}
	go consumer.Consume(ctx, event)
}

// ListenForever restarts Listen after failures until ctx is done.
func (cl *DBNotifyListener) ListenForever(ctx context.Context) {
	for {
		err := cl.Listen(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("warning: db notification listener stopped: %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepOnErrorTime):
		}
	}
}

type CacheStorage interface {
	CacheInvalidate(ctx context.Context, key int64, version int64)
}

type Fetcher interface {
	FetchGame(ctx context.Context, id int64) (*model.Game, error)
}

type ClientNotifier interface {
	NotifyUpdated(g *model.Game)
	NotifyDeleted(id int64)
}

// GameDispatcher is the Consumer for the games table.
type GameDispatcher struct {
	origin         string
	cacheStorage   CacheStorage
	fetcher        Fetcher
	clientNotifier ClientNotifier
}

var _ Consumer = (*GameDispatcher)(nil)

// NewGameDispatcher ignores events from origin, which should be this
// process's own writer.
func NewGameDispatcher(origin string, cacheStorage CacheStorage, fetcher Fetcher, clientNotifier ClientNotifier) *GameDispatcher {
	return &GameDispatcher{
		origin:         origin,
		cacheStorage:   cacheStorage,
		fetcher:        fetcher,
		clientNotifier: clientNotifier,
	}
}

func (cd *GameDispatcher) TableName() string {
	return "games"
}

func (cd *GameDispatcher) Consume(ctx context.Context, event *NotificationEvent) {
	if event.Origin == cd.origin {
		return
	}
	if event.Deleted {
		cd.cacheStorage.CacheInvalidate(ctx, event.OnID, math.MaxInt64)
		cd.clientNotifier.NotifyDeleted(event.OnID)
		return
	}

	cd.cacheStorage.CacheInvalidate(ctx, event.OnID, event.Version)

	// Read-through.
	g, err := cd.fetcher.FetchGame(ctx, event.OnID)
	if err != nil {
		log.Printf("drop notification: can't fetch game %d: %v", event.OnID, err)
		return
	}
	cd.clientNotifier.NotifyUpdated(g)
}
