package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	app "github.com/diwise/iot-observations/internal/app/observations"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string

	engine *app.Config
}

func NewConfig(host, user, password, port, dbname, sslmode string, engine *app.Config) Config {
	if engine == nil {
		engine = app.DefaultConfig()
	}
	return Config{
		host:     host,
		user:     user,
		password: password,
		port:     port,
		dbname:   dbname,
		sslmode:  sslmode,
		engine:   engine,
	}
}

func LoadConfiguration(ctx context.Context, engine *app.Config) Config {
	return NewConfig(
		env.GetVariableOrDefault(ctx, "POSTGRES_HOST", "localhost"),
		env.GetVariableOrDefault(ctx, "POSTGRES_USER", "postgres"),
		env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", "password"),
		env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "postgres"),
		env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
		engine,
	)
}

func (c Config) ConnStr() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.user, c.password, c.host, c.port, c.dbname, c.sslmode,
	)
}

type Db struct {
	pool   *pgxpool.Pool
	engine *app.Config

	// datastreams with unrefreshed extents, drained by the refresh worker
	mu    sync.Mutex
	dirty map[string]struct{}
}

func New(ctx context.Context, cfg Config) (*Db, error) {
	p, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	err = initialize(ctx, p)
	if err != nil {
		return nil, err
	}

	db := &Db{
		pool:   p,
		engine: cfg.engine,
		dirty:  map[string]struct{}{},
	}

	err = db.EnsurePartitions(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func (db *Db) Close() {
	db.pool.Close()
}

func connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = conn.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return conn, err
}

func initialize(ctx context.Context, pool *pgxpool.Pool) error {
	log := logging.GetFromContext(ctx)

	ddl := `
	CREATE TABLE IF NOT EXISTS entities (
		node_id      BIGSERIAL,
		entity_type  TEXT  NOT NULL,
		entity_id    TEXT  NOT NULL,
		data         JSONB NOT NULL,
		location     POINT NULL,
		feature_hash TEXT  NULL,
		tenant       TEXT  NOT NULL DEFAULT 'default',
		created_on   timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
		modified_on  timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (node_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS entity_idx ON entities (entity_type, entity_id);
	CREATE UNIQUE INDEX IF NOT EXISTS entity_feature_hash_idx ON entities (feature_hash) WHERE feature_hash IS NOT NULL;
	CREATE INDEX IF NOT EXISTS entity_location_idx ON entities USING GIST(location);

	CREATE TABLE IF NOT EXISTS entity_relations (
		parent BIGINT NOT NULL,
		child  BIGINT NOT NULL,
		PRIMARY KEY (parent, child)
	);

	CREATE TABLE IF NOT EXISTS observations (
		id               TEXT  NOT NULL,
		datastream_id    TEXT  NOT NULL,
		feature_id       TEXT  NULL,
		phenomenon_time  timestamp with time zone NOT NULL,
		result_time      timestamp with time zone NULL,
		result           JSONB NOT NULL,
		result_canonical TEXT  NOT NULL,
		result_quality   JSONB NULL,
		parameters       JSONB NULL,
		client_ts        timestamp with time zone NULL,
		server_ts        timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP,
		sync_batch_id    TEXT  NULL,
		PRIMARY KEY (phenomenon_time, id)
	) PARTITION BY RANGE (phenomenon_time);

	CREATE UNIQUE INDEX IF NOT EXISTS observation_dedupe_idx ON observations (datastream_id, phenomenon_time, result_canonical);
	CREATE INDEX IF NOT EXISTS observation_stream_idx ON observations (datastream_id, phenomenon_time DESC);
	`

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Error("could not begin transaction", "err", err.Error())
		return err
	}

	_, err = tx.Exec(ctx, ddl)
	if err != nil {
		log.Error("could not execute ddl statement", "err", err.Error())
		tx.Rollback(ctx)
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		log.Error("could not commit transaction", "err", err.Error())
		return err
	}

	return nil
}

func isDuplicateKeyErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // duplicate key value violates unique constraint
			return true
		}
	}
	return false
}

func isDuplicateTableErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "42P07" { // relation already exists
			return true
		}
	}
	return false
}

// isMissingPartitionErr matches the check violation raised when a row
// targets a time range no partition covers yet.
func isMissingPartitionErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23514" && pgErr.TableName == "observations" {
			return true
		}
	}
	return false
}

func (db *Db) markDirty(datastreamIDs ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, id := range datastreamIDs {
		db.dirty[id] = struct{}{}
	}
}

func (db *Db) drainDirty() []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	ids := make([]string, 0, len(db.dirty))
	for id := range db.dirty {
		ids = append(ids, id)
	}
	db.dirty = map[string]struct{}{}

	return ids
}
