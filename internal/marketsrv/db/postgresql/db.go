package postgresql

import (
	"context"
	"database/sql"

	"github.com/veristream/veristream-internal/internal/marketsrv/db/dbmanager"
)

// catalogManager executes catalog queries over a pooled connection.
type catalogManager struct {
	c dbmanager.Conn
}

func (cm *catalogManager) conn() *sql.Conn {
	return cm.c.Conn()
}

// Close returns the connection to the pool.
func (cm *catalogManager) Close(ctx context.Context) {
	cm.c.Close(ctx)
}

// NewCatalogDb wraps a pooled connection with the catalog query surface.
func NewCatalogDb(c dbmanager.Conn) *catalogManager {
	return &catalogManager{c: c}
}
