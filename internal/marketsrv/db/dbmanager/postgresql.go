package dbmanager

import (
	"context"
	"database/sql"
	"sync/atomic"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/rs/zerolog/log"
)

type postgresConn struct {
	conn   *sql.Conn
	cancel context.CancelFunc
	pool   *postgresPool
}

type postgresPool struct {
	connRequests atomic.Uint64
	connReturns  atomic.Uint64
	db           *sql.DB
}

// NewPostgresqlDb opens a connection pool against the given DSN using the
// pgx stdlib driver and verifies it with a ping.
func NewPostgresqlDb(dsn string) (Db, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		log.Error().Err(err).Msg("failed to ping db")
		return nil, err
	}
	return &postgresPool{db: sqlDB}, nil
}

// Conn obtains a connection from the pool with lock and statement timeouts
// applied. Long waits belong to the orchestrators, never to the database.
func (p *postgresPool) Conn(ctx context.Context) (Conn, error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, err := p.db.Conn(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to obtain connection")
		cancel()
		return nil, err
	}

	if _, err = conn.ExecContext(ctx, "SET lock_timeout = '5s'"); err != nil {
		log.Error().Err(err).Msg("failed to set lock timeout")
		conn.Close()
		cancel()
		return nil, err
	}
	if _, err = conn.ExecContext(ctx, "SET statement_timeout = '5s'"); err != nil {
		log.Error().Err(err).Msg("failed to set statement timeout")
		conn.Close()
		cancel()
		return nil, err
	}

	p.connRequests.Add(1)
	return &postgresConn{
		cancel: cancel,
		pool:   p,
		conn:   conn,
	}, nil
}

func (p *postgresPool) Stats() (requests, returns uint64) {
	return p.connRequests.Load(), p.connReturns.Load()
}

func (h *postgresConn) Conn() *sql.Conn {
	return h.conn
}

// Close returns the connection back to the pool.
func (h *postgresConn) Close(_ context.Context) {
	if h.cancel != nil {
		h.cancel()
	}
	if h.conn != nil {
		h.conn.Close()
	}
	h.pool.connReturns.Add(1)
}
