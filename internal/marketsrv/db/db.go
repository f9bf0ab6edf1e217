package db

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/veristream/veristream-internal/internal/common/apperrors"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dberror"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/dbmanager"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/models"
	"github.com/veristream/veristream-internal/internal/marketsrv/db/postgresql"
	"github.com/veristream/veristream-internal/pkg/types"
)

// CatalogManager is the query surface of the marketplace catalog. Handlers
// acquire a connection with ConnCtx and obtain an implementation bound to it
// with DB.

type CatalogManager interface {
	// Content
	CreateContent(ctx context.Context, content *models.Content) apperrors.Error
	GetContent(ctx context.Context, id types.ContentID) (*models.Content, apperrors.Error)
	ListContentByCreator(ctx context.Context, creator string) ([]*models.Content, apperrors.Error)
	UpdateContent(ctx context.Context, id types.ContentID, owner string, upd *models.ContentUpdate) apperrors.Error
	DeleteContent(ctx context.Context, id types.ContentID, owner string) apperrors.Error
	SetContentTxHandle(ctx context.Context, id types.ContentID, handle types.TxHandle) apperrors.Error
	SetContentLedgerID(ctx context.Context, id types.ContentID, ledgerID types.LedgerID) apperrors.Error
	ActivateContent(ctx context.Context, id types.ContentID) apperrors.Error
	ListUnanchoredContent(ctx context.Context, limit int) ([]*models.Content, apperrors.Error)

	// License
	CreateLicense(ctx context.Context, license *models.License) apperrors.Error
	GetLicense(ctx context.Context, id types.LicenseID) (*models.License, apperrors.Error)
	ListLicensesByContent(ctx context.Context, id types.ContentID) ([]*models.License, apperrors.Error)
	ListLicensesByBuyer(ctx context.Context, buyer string) ([]*models.License, apperrors.Error)
	SetLicenseTxHandle(ctx context.Context, id types.LicenseID, handle types.TxHandle) apperrors.Error
	SetLicenseLedgerID(ctx context.Context, id types.LicenseID, ledgerID types.LedgerID) apperrors.Error
	ActivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error
	DeactivateLicense(ctx context.Context, id types.LicenseID) apperrors.Error
	CountActiveLicenses(ctx context.Context, id types.ContentID) (int, apperrors.Error)
	ListUnanchoredLicenses(ctx context.Context, limit int) ([]*models.License, apperrors.Error)

	// Close returns the connection to the pool.
	Close(ctx context.Context)
}

var pool dbmanager.Db

// Init creates the shared connection pool. It must be called once before any
// handler acquires a connection.
func Init(ctx context.Context, dsn string) error {
	pg := dbmanager.NewDb(ctx, "postgresql", dsn)
	if pg == nil {
		return dberror.ErrDatabase.Msg("unable to create db pool")
	}
	pool = pg
	return nil
}

func Conn(ctx context.Context) dbmanager.Conn {
	if pool != nil {
		conn, err := pool.Conn(ctx)
		if err == nil {
			return conn
		}
		log.Ctx(ctx).Error().Err(err).Msg("unable to get db connection")
	}
	return nil
}

type ctxDbKeyType string

const ctxDbKey ctxDbKeyType = "VeristreamCatalogDb"

// ConnCtx acquires a pooled connection and stashes a catalog manager bound
// to it in the context for the duration of a request.
func ConnCtx(ctx context.Context) context.Context {
	conn := Conn(ctx)
	if conn == nil {
		return ctx
	}
	return WithCatalog(ctx, postgresql.NewCatalogDb(conn))
}

// WithCatalog stashes a catalog manager in the context directly.
func WithCatalog(ctx context.Context, m CatalogManager) context.Context {
	return context.WithValue(ctx, ctxDbKey, m)
}

// DB returns the catalog manager carried by ctx, or nil if ConnCtx was not
// called.
func DB(ctx context.Context) CatalogManager {
	if m, ok := ctx.Value(ctxDbKey).(CatalogManager); ok && m != nil {
		return m
	}
	log.Ctx(ctx).Error().Msg("unable to get db connection from context")
	return nil
}
