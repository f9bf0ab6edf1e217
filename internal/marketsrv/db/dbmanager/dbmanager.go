// Package dbmanager manages the PostgreSQL connection pool used by the
// catalog repository.
package dbmanager

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
)

type Db interface {
	// Conn returns a new connection from the pool.
	Conn(ctx context.Context) (Conn, error)
	// Stats returns the number of connection requests and returns.
	Stats() (requests, returns uint64)
}

type Conn interface {
	// Conn returns the underlying connection.
	Conn() *sql.Conn
	// Close returns the connection back to the pool.
	Close(ctx context.Context)
}

func NewDb(ctx context.Context, dbtype string, dsn string) Db {
	switch dbtype {
	case "postgresql":
		db, err := NewPostgresqlDb(dsn)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to create PostgreSQL DB")
			return nil
		}
		return db
	}
	return nil
}
