package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers "sqlite"

	"github.com/ts4z/deuces/config"
)

// DB is a database handle that knows which SQL dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

type cloudEnvSettings struct {
	dbUser,
	dbPwd,
	dbName,
	instanceConnectionName,
	usePrivate string
}

func (s *cloudEnvSettings) getenv() error {
	unset := []string{}
	getenv := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			unset = append(unset, k)
		}
		return v
	}

	s.dbUser = getenv("DB_USER")                                  // e.g. 'my-db-user'
	s.dbPwd = getenv("DB_PASS")                                   // e.g. 'my-db-password'
	s.dbName = getenv("DB_NAME")                                  // e.g. 'my-database'
	s.instanceConnectionName = getenv("INSTANCE_CONNECTION_NAME") // e.g. 'project:region:instance'
	s.usePrivate = os.Getenv("PRIVATE_IP")

	if len(unset) > 0 {
		return fmt.Errorf("cloudsqlconn: unset variables: %+v", unset)
	}
	return nil
}

func connectWithConnector() (*DB, error) {
	env := &cloudEnvSettings{}
	if err := env.getenv(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", env.dbUser, env.dbPwd, env.dbName)
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if env.usePrivate != "" {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	// Refresh on demand rather than in the background; we're usually
	// serverless.
	opts = append(opts, cloudsqlconn.WithLazyRefresh())
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	cfg.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, env.instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(cfg)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return &DB{DB: dbPool, Dialect: Postgres}, nil
}

func connectWithPgx() (*DB, error) {
	url := config.DBURL()
	log.Printf("connecting to database at %s", url)
	if url == "" {
		return nil, errors.New("database URL is empty")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, Dialect: Postgres}, nil
}

func connectWithSQLite() (*DB, error) {
	path := config.DBURL()
	if path == "" {
		path = "deuces.db"
	}
	log.Printf("opening sqlite database %s", path)
	return OpenSQLite(path)
}

// OpenSQLite opens (creating if needed) a SQLite database.  ":memory:" works,
// but only with a single connection, since each connection gets its own
// database.
func OpenSQLite(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

// Connect opens the database named by config.SQLConnector().
func Connect() (*DB, error) {
	factories := map[string]func() (*DB, error){
		"connector": connectWithConnector,
		"pgx":       connectWithPgx,
		"sqlite":    connectWithSQLite,
		"memory":    func() (*DB, error) { return OpenSQLite(":memory:") },
	}
	factory, ok := factories[config.SQLConnector()]
	if !ok {
		return nil, fmt.Errorf("unknown value for config.SQLConnector(): %q", config.SQLConnector())
	}
	return factory()
}
